package http

import (
	"time"

	"github.com/nurpe/carmate-contracts/internal/model"
	"github.com/nurpe/carmate-contracts/internal/service"
)

type meetingRequest struct {
	Date   time.Time   `json:"date" binding:"required"`
	Alarms []time.Time `json:"alarms"`
}

type documentRefRequest struct {
	ID       uint   `json:"id" binding:"required"`
	FileName string `json:"fileName"`
}

type createContractRequest struct {
	CarID      uint             `json:"carId" binding:"required"`
	CustomerID uint             `json:"customerId" binding:"required"`
	Meetings   []meetingRequest `json:"meetings" binding:"max=3,dive"`
}

type updateContractRequest struct {
	Status            *string               `json:"status"`
	ResolutionDate    *time.Time            `json:"resolutionDate"`
	ContractPrice     *int64                `json:"contractPrice" binding:"omitempty,min=0"`
	CarID             *uint                 `json:"carId"`
	CustomerID        *uint                 `json:"customerId"`
	UserID            *uint                 `json:"userId"`
	Meetings          *[]meetingRequest     `json:"meetings"`
	ContractDocuments *[]documentRefRequest `json:"contractDocuments"`
}

type reconcileDocumentsRequest struct {
	ContractDocuments []documentRefRequest `json:"contractDocuments" binding:"required,dive"`
}

type documentListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"pageSize" binding:"omitempty,min=1,max=100"`
	SearchBy string `form:"searchBy" binding:"omitempty,oneof=contractName"`
	Keyword  string `form:"keyword"`
}

func toDocumentRefs(in []documentRefRequest) []model.DocumentRef {
	refs := make([]model.DocumentRef, 0, len(in))
	for _, d := range in {
		refs = append(refs, model.DocumentRef{ID: d.ID, FileName: d.FileName})
	}
	return refs
}

func toMeetingInputs(in []meetingRequest) []model.MeetingInput {
	out := make([]model.MeetingInput, 0, len(in))
	for _, m := range in {
		out = append(out, model.MeetingInput{Date: m.Date, Alarms: m.Alarms})
	}
	return out
}

func (r updateContractRequest) toInput() service.UpdateContractInput {
	input := service.UpdateContractInput{
		ResolutionDate: r.ResolutionDate,
		ContractPrice:  r.ContractPrice,
		CarID:          r.CarID,
		CustomerID:     r.CustomerID,
		UserID:         r.UserID,
	}
	if r.Status != nil {
		status := model.ContractStatus(*r.Status)
		input.Status = &status
	}
	if r.Meetings != nil {
		meetings := toMeetingInputs(*r.Meetings)
		input.Meetings = &meetings
	}
	if r.ContractDocuments != nil {
		refs := toDocumentRefs(*r.ContractDocuments)
		input.Documents = &refs
	}
	return input
}

type namedRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type carRef struct {
	ID        uint   `json:"id"`
	Model     string `json:"model"`
	CarNumber string `json:"carNumber"`
}

type meetingResponse struct {
	Date   time.Time   `json:"date"`
	Alarms []time.Time `json:"alarms"`
}

type documentResponse struct {
	ID       uint   `json:"id"`
	FileName string `json:"fileName"`
}

type contractResponse struct {
	ID                uint                 `json:"id"`
	ContractName      string               `json:"contractName"`
	Status            model.ContractStatus `json:"status"`
	ResolutionDate    *time.Time           `json:"resolutionDate"`
	ContractPrice     int64                `json:"contractPrice"`
	Car               carRef               `json:"car"`
	Customer          namedRef             `json:"customer"`
	User              namedRef             `json:"user"`
	Meetings          []meetingResponse    `json:"meetings"`
	ContractDocuments []documentResponse   `json:"contractDocuments"`
}

type contractColumnResponse struct {
	TotalItemCount int                `json:"totalItemCount"`
	Data           []contractResponse `json:"data"`
}

func toContractResponse(c model.Contract) contractResponse {
	resp := contractResponse{
		ID:                c.ID,
		ContractName:      c.Name(),
		Status:            c.Status,
		ResolutionDate:    c.ResolutionDate,
		ContractPrice:     c.ContractPrice,
		Car:               carRef{ID: c.CarID},
		Customer:          namedRef{ID: c.CustomerID},
		User:              namedRef{ID: c.UserID},
		Meetings:          make([]meetingResponse, 0, len(c.Meetings)),
		ContractDocuments: make([]documentResponse, 0, len(c.Documents)),
	}
	if c.Car != nil {
		resp.Car.CarNumber = c.Car.CarNumber
		if c.Car.Model != nil {
			resp.Car.Model = c.Car.Model.Model
		}
	}
	if c.Customer != nil {
		resp.Customer.Name = c.Customer.Name
	}
	if c.User != nil {
		resp.User.Name = c.User.Name
	}
	for _, m := range c.Meetings {
		alarms := make([]time.Time, 0, len(m.Notifications))
		for _, n := range m.Notifications {
			alarms = append(alarms, n.AlarmTime)
		}
		resp.Meetings = append(resp.Meetings, meetingResponse{Date: m.Date, Alarms: alarms})
	}
	for _, d := range c.Documents {
		resp.ContractDocuments = append(resp.ContractDocuments, documentResponse{ID: d.ID, FileName: d.FileName})
	}
	return resp
}

func toBoardResponse(columns []service.ContractColumn) map[model.ContractStatus]contractColumnResponse {
	board := make(map[model.ContractStatus]contractColumnResponse, len(columns))
	for _, column := range columns {
		data := make([]contractResponse, 0, len(column.Contracts))
		for _, c := range column.Contracts {
			data = append(data, toContractResponse(c))
		}
		board[column.Status] = contractColumnResponse{TotalItemCount: len(data), Data: data}
	}
	return board
}

type optionResponse struct {
	ID   uint   `json:"id"`
	Data string `json:"data"`
}

func toOptionResponses(options []model.SelectOption) []optionResponse {
	out := make([]optionResponse, 0, len(options))
	for _, o := range options {
		out = append(out, optionResponse{ID: o.ID, Data: o.Label})
	}
	return out
}

type documentContractResponse struct {
	ID             uint               `json:"id"`
	ContractName   string             `json:"contractName"`
	ResolutionDate *time.Time         `json:"resolutionDate"`
	DocumentCount  int                `json:"documentCount"`
	UserName       string             `json:"userName"`
	CarNumber      string             `json:"carNumber"`
	Documents      []documentResponse `json:"documents"`
}

type documentPageResponse struct {
	CurrentPage    int                        `json:"currentPage"`
	TotalPages     int                        `json:"totalPages"`
	TotalItemCount int64                      `json:"totalItemCount"`
	Data           []documentContractResponse `json:"data"`
}

func toDocumentPageResponse(page service.DocumentPage) documentPageResponse {
	resp := documentPageResponse{
		CurrentPage:    page.CurrentPage,
		TotalPages:     page.TotalPages,
		TotalItemCount: page.TotalItemCount,
		Data:           make([]documentContractResponse, 0, len(page.Contracts)),
	}
	for _, c := range page.Contracts {
		item := documentContractResponse{
			ID:             c.ID,
			ContractName:   c.Name(),
			ResolutionDate: c.ResolutionDate,
			DocumentCount:  len(c.Documents),
			Documents:      make([]documentResponse, 0, len(c.Documents)),
		}
		if c.User != nil {
			item.UserName = c.User.Name
		}
		if c.Car != nil {
			item.CarNumber = c.Car.CarNumber
		}
		for _, d := range c.Documents {
			item.Documents = append(item.Documents, documentResponse{ID: d.ID, FileName: d.FileName})
		}
		resp.Data = append(resp.Data, item)
	}
	return resp
}
