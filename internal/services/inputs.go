package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Amount decodes a claim amount sent either as a JSON number or as a
// numeric string.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
		if s == "" {
			*a = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("claim amount %q is not a number", s)
		}
		*a = Amount(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("claim amount must be a number")
	}
	*a = Amount(v)
	return nil
}

// ClaimInput is a single claim as submitted.
type ClaimInput struct {
	Type                 string   `json:"type"`
	RefundDate           string   `json:"refundDate"`
	VehicleNumber        string   `json:"vehicleNumber"`
	VIN                  string   `json:"vin"`
	InsuranceProvider    string   `json:"insuranceProvider"`
	InsuranceProviderEtc string   `json:"insuranceProviderEtc"`
	CompanyName          string   `json:"companyName"`
	DealerName           string   `json:"dealerName"`
	ManagerName          string   `json:"managerName"`
	RefundMethod         string   `json:"refundMethod"`
	ClaimAmount          Amount   `json:"claimAmount"`
	RefundReason         string   `json:"refundReason"`
	BankName             string   `json:"bankName"`
	AccountNumber        string   `json:"accountNumber"`
	AccountHolder        string   `json:"accountHolder"`
	ReceiptDate          string   `json:"receiptDate"`
	OffsetReason         string   `json:"offsetReason"`
	ReceiptPhotos        []string `json:"receiptPhotos"`
	ExcelFile            string   `json:"excelFile"`
	BundledPhotos        []string `json:"bundledPhotos"`
	Notes                string   `json:"notes"`
}

// BatchHeader holds the fields shared by every line of a batch.
type BatchHeader struct {
	InsuranceProvider    string `json:"insuranceProvider"`
	InsuranceProviderEtc string `json:"insuranceProviderEtc"`
	CompanyName          string `json:"companyName"`
	DealerName           string `json:"dealerName"`
	ManagerName          string `json:"managerName"`
	RefundMethod         string `json:"refundMethod"`
	BankName             string `json:"bankName"`
	AccountNumber        string `json:"accountNumber"`
	AccountHolder        string `json:"accountHolder"`
	OffsetReason         string `json:"offsetReason"`
}

// BatchItem is one vehicle line of a batch.
type BatchItem struct {
	RefundDate    string   `json:"refundDate"`
	VehicleNumber string   `json:"vehicleNumber"`
	VIN           string   `json:"vin"`
	ClaimAmount   Amount   `json:"claimAmount"`
	RefundReason  string   `json:"refundReason"`
	ReceiptDate   string   `json:"receiptDate"`
	ReceiptPhotos []string `json:"receiptPhotos"`
}

// ClaimPatch is a partial update. Nil fields are left unchanged.
type ClaimPatch struct {
	RefundDate           *string   `json:"refundDate"`
	VehicleNumber        *string   `json:"vehicleNumber"`
	VIN                  *string   `json:"vin"`
	InsuranceProvider    *string   `json:"insuranceProvider"`
	InsuranceProviderEtc *string   `json:"insuranceProviderEtc"`
	CompanyName          *string   `json:"companyName"`
	DealerName           *string   `json:"dealerName"`
	ManagerName          *string   `json:"managerName"`
	RefundMethod         *string   `json:"refundMethod"`
	ClaimAmount          *Amount   `json:"claimAmount"`
	RefundReason         *string   `json:"refundReason"`
	BankName             *string   `json:"bankName"`
	AccountNumber        *string   `json:"accountNumber"`
	AccountHolder        *string   `json:"accountHolder"`
	ReceiptDate          *string   `json:"receiptDate"`
	OffsetReason         *string   `json:"offsetReason"`
	ReceiptPhotos        *[]string `json:"receiptPhotos"`
	Notes                *string   `json:"notes"`
}

// WorkLogInput is a new work log as submitted.
type WorkLogInput struct {
	Date                  string   `json:"date"`
	Note                  string   `json:"note"`
	PhotoURLs             []string `json:"photoUrls"`
	WorklogPasteImageURLs []string `json:"worklogPasteImageUrls"`
}

// WorkLogPatch is a partial work-log update. Status and CommanderComment
// are reserved for administrators.
type WorkLogPatch struct {
	Note             *string `json:"note"`
	Status           *string `json:"status"`
	CommanderComment *string `json:"commanderComment"`
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
