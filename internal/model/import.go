package model

type ImportFailure struct {
	Row    int    `json:"row"`
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

type ImportResult struct {
	SuccessCount int             `json:"successCount"`
	FailureCount int             `json:"failureCount"`
	Failures     []ImportFailure `json:"failures"`
}
