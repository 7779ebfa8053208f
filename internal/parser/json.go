package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/insightdelivered/upi-statement-converter/internal/extractor"
	"github.com/insightdelivered/upi-statement-converter/internal/models"
)

type groupExpenseJSON struct {
	CreationTime string `json:"creation_time"`
	Creator      string `json:"creator"`
	GroupName    string `json:"group_name"`
	TotalAmount  string `json:"total_amount"`
	State        string `json:"state"`
	Title        string `json:"title"`
	Items        []struct {
		Amount string `json:"amount"`
		State  string `json:"state"`
		Payer  string `json:"payer"`
	} `json:"items"`
}

type voucherJSON struct {
	Code       string `json:"code"`
	Details    string `json:"details"`
	Summary    string `json:"summary"`
	ExpiryDate string `json:"expiry_date"`
}

// decodeList decodes either a bare array or an object holding the array
// under key. Anything else is a schema error.
func decodeList(text, key string) ([]json.RawMessage, error) {
	data := bytes.TrimSpace([]byte(extractor.StripAntiInjectionPrefix(text)))
	if len(data) == 0 {
		return nil, schemaErrorf("json", "empty document")
	}

	if data[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, &SchemaError{Format: "json", Err: err}
		}
		return list, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, &SchemaError{Format: "json", Err: err}
	}
	for k, v := range obj {
		if !strings.EqualFold(k, key) {
			continue
		}
		if string(bytes.TrimSpace(v)) == "null" {
			return nil, nil
		}
		var list []json.RawMessage
		if err := json.Unmarshal(v, &list); err != nil {
			return nil, &SchemaError{Format: "json", Err: fmt.Errorf("%s: %w", key, err)}
		}
		return list, nil
	}
	return nil, schemaErrorf("json", "missing %q list", key)
}

// ParseGroupExpensesJSON decodes a group-expense export. Records with an
// unreadable creation time or total are skipped; items with a bad amount are
// dropped from their expense.
func ParseGroupExpensesJSON(text string) (Result[models.GroupExpense], error) {
	var res Result[models.GroupExpense]

	list, err := decodeList(text, "Group_expenses")
	if err != nil {
		return res, err
	}

	for i, raw := range list {
		res.Rows++
		var rec groupExpenseJSON
		if err := json.Unmarshal(raw, &rec); err != nil {
			res.warnf("group expense %d: %v", i, err)
			continue
		}

		created, err := ParseTimestamp(rec.CreationTime)
		if err != nil {
			res.warnf("group expense %d: %v", i, err)
			continue
		}
		total, err := ParseCurrency(rec.TotalAmount)
		if err != nil {
			res.warnf("group expense %d: %v", i, err)
			continue
		}

		ge := models.GroupExpense{
			CreationTime: created,
			Creator:      strings.TrimSpace(rec.Creator),
			GroupName:    strings.TrimSpace(rec.GroupName),
			TotalAmount:  total,
			State:        models.GroupExpenseState(strings.ToUpper(strings.TrimSpace(rec.State))),
			Title:        strings.TrimSpace(rec.Title),
			Items:        make([]models.GroupExpenseItem, 0, len(rec.Items)),
		}
		for j, it := range rec.Items {
			amount, err := ParseCurrency(it.Amount)
			if err != nil {
				res.warnf("group expense %d item %d: %v", i, j, err)
				continue
			}
			ge.Items = append(ge.Items, models.GroupExpenseItem{
				Amount: amount,
				State:  models.ItemState(strings.ToUpper(strings.TrimSpace(it.State))),
				Payer:  strings.TrimSpace(it.Payer),
			})
		}

		res.Data = append(res.Data, ge)
	}

	return res, nil
}

// ParseVouchersJSON decodes a voucher list. Vouchers without a readable
// expiry date are skipped since year filtering depends on it.
func ParseVouchersJSON(text string) (Result[models.Voucher], error) {
	var res Result[models.Voucher]

	list, err := decodeList(text, "Vouchers")
	if err != nil {
		return res, err
	}

	for i, raw := range list {
		res.Rows++
		var rec voucherJSON
		if err := json.Unmarshal(raw, &rec); err != nil {
			res.warnf("voucher %d: %v", i, err)
			continue
		}
		expiry, err := ParseTimestamp(rec.ExpiryDate)
		if err != nil {
			res.warnf("voucher %d: %v", i, err)
			continue
		}
		res.Data = append(res.Data, models.Voucher{
			Code:       strings.TrimSpace(rec.Code),
			Details:    strings.TrimSpace(rec.Details),
			Summary:    strings.TrimSpace(rec.Summary),
			ExpiryDate: expiry,
		})
	}

	return res, nil
}
