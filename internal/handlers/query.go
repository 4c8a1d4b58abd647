package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"refund-service/internal/index"
	"refund-service/internal/matching"
)

func parsePagination(r *http.Request) (index.Pagination, error) {
	q := r.URL.Query()
	var p index.Pagination
	for _, f := range []struct {
		name string
		dst  *int
	}{{"page", &p.Page}, {"pageSize", &p.PageSize}} {
		raw := q.Get(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return p, fmt.Errorf("%s must be a positive integer", f.name)
		}
		*f.dst = v
	}
	return p, nil
}

func parseAmount(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return &v, nil
}

// parseRefundQuery reads the claim list filter and page from the query
// string.
func parseRefundQuery(r *http.Request) (index.RefundQuery, error) {
	q := r.URL.Query()
	p, err := parsePagination(r)
	if err != nil {
		return index.RefundQuery{}, err
	}

	f := matching.RefundFilter{
		Status:        q.Get("status"),
		Submitter:     q.Get("submitter"),
		CompanyName:   q.Get("companyName"),
		VehicleNumber: q.Get("vehicleNumber"),
		RefundMethod:  q.Get("refundMethod"),
		RefundReason:  q.Get("refundReason"),
	}
	if f.From, err = matching.ParseDate(q.Get("from")); err != nil {
		return index.RefundQuery{}, err
	}
	if f.To, err = matching.ParseDate(q.Get("to")); err != nil {
		return index.RefundQuery{}, err
	}
	switch q.Get("dateField") {
	case "", "submittedAt":
		f.DateField = matching.BySubmittedAt
	case "refundDate":
		f.DateField = matching.ByRefundDate
	default:
		return index.RefundQuery{}, fmt.Errorf("dateField must be submittedAt or refundDate")
	}
	if f.MinAmount, err = parseAmount(q.Get("minAmount")); err != nil {
		return index.RefundQuery{}, err
	}
	if f.MaxAmount, err = parseAmount(q.Get("maxAmount")); err != nil {
		return index.RefundQuery{}, err
	}
	if f.Acknowledged, err = matching.ParseAcknowledgment(q.Get("acknowledged")); err != nil {
		return index.RefundQuery{}, err
	}

	return index.RefundQuery{Filter: f, Pagination: p}, nil
}
