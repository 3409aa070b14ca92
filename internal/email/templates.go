package email

import (
	"bytes"
	"fmt"
	"html/template"
)

type DocumentLink struct {
	FileName string
	URL      string
}

type ContractCompletedData struct {
	CustomerName string
	ContractID   uint
	CarName      string
	Links        []DocumentLink
	ValidDays    int
}

var contractCompletedTemplate = template.Must(template.New("contract-completed").Parse(contractCompletedHTML))

// RenderContractCompleted returns the subject and body of the mail that
// delivers signed contract documents to a customer.
func RenderContractCompleted(data ContractCompletedData) (string, string, error) {
	var buf bytes.Buffer
	if err := contractCompletedTemplate.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render contract email: %w", err)
	}
	subject := fmt.Sprintf("[Dear Carmate] 계약서가 도착했습니다 - 계약 번호 #%d", data.ContractID)
	return subject, buf.String(), nil
}

const contractCompletedHTML = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #333; text-align: center;">Dear Carmate</h1>
  <h2 style="color: #333;">안녕하세요, {{.CustomerName}}님!</h2>
  <p style="color: #555;">계약이 완료되었으며, 계약서를 발송드립니다.</p>
  <div style="background-color: #f5f5f5; padding: 20px; border-radius: 8px;">
    <p><strong>계약 번호:</strong> #{{.ContractID}}</p>
    <p><strong>차량:</strong> {{.CarName}}</p>
    <p><strong>계약서:</strong> {{len .Links}}개</p>
  </div>
  <h3 style="color: #333;">계약서 다운로드</h3>
  <ul style="list-style: none; padding: 0;">
    {{- range .Links}}
    <li style="margin: 8px 0;"><a href="{{.URL}}" style="color: #007bff;">{{.FileName}}</a></li>
    {{- end}}
  </ul>
  <p style="font-size: 13px; color: #999;">※ 다운로드 링크는 발송일로부터 {{.ValidDays}}일간 유효합니다.</p>
  <p style="color: #999; font-size: 12px; text-align: center;">본 메일은 발신 전용입니다. 문의는 고객센터를 이용해 주세요.</p>
</div>`
