package document

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Saved documents were produced by hand-edited browser forms, so a field of
// the wrong JSON type must never make the whole document unreadable. The
// types below decode any JSON value and degrade to a zero value.

// number decodes into a float, degrading to 0 for null, non-numeric strings,
// booleans, objects and arrays.
type number float64

func (n *number) UnmarshalJSON(data []byte) error {
	*n = 0
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	var v float64
	switch t := raw.(type) {
	case float64:
		v = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil
		}
		v = parsed
	default:
		return nil
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*n = number(v)
	return nil
}

func (n *number) ptr() *float64 {
	if n == nil {
		return nil
	}
	v := float64(*n)
	return &v
}

// text decodes strings as-is and numbers in their shortest form. Anything
// else becomes "".
type text string

func (s *text) UnmarshalJSON(data []byte) error {
	*s = ""
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	switch t := raw.(type) {
	case string:
		*s = text(t)
	case float64:
		*s = text(strconv.FormatFloat(t, 'f', -1, 64))
	}
	return nil
}

// flag decodes truthy values: booleans, non-zero numbers, and strings. A
// string that spells a boolean ("false", "0") is parsed; any other
// non-empty string is true.
type flag bool

func (f *flag) UnmarshalJSON(data []byte) error {
	*f = false
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	switch t := raw.(type) {
	case bool:
		*f = flag(t)
	case float64:
		*f = flag(t != 0 && !math.IsNaN(t))
	case string:
		t = strings.TrimSpace(t)
		if b, err := strconv.ParseBool(t); err == nil {
			*f = flag(b)
			return nil
		}
		*f = t != ""
	case map[string]any, []any:
		*f = true
	}
	return nil
}

// timestamp accepts RFC 3339 strings and epoch milliseconds. Anything else
// is the zero time.
type timestamp time.Time

func (ts *timestamp) UnmarshalJSON(data []byte) error {
	*ts = timestamp{}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	switch t := raw.(type) {
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(t)); err == nil {
			*ts = timestamp(parsed)
		}
	case float64:
		if !math.IsNaN(t) && !math.IsInf(t, 0) && t > 0 {
			*ts = timestamp(time.UnixMilli(int64(t)).UTC())
		}
	}
	return nil
}

// names accepts an array of names or a single comma separated string.
type names []string

func (n *names) UnmarshalJSON(data []byte) error {
	*n = nil
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	var out []string
	switch t := raw.(type) {
	case string:
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	case []any:
		for _, el := range t {
			var s string
			switch v := el.(type) {
			case string:
				s = strings.TrimSpace(v)
			case float64:
				s = strconv.FormatFloat(v, 'f', -1, 64)
			}
			if s != "" {
				out = append(out, s)
			}
		}
	}
	*n = out
	return nil
}

// itemList skips a non-array items value.
type itemList []Item

func (l *itemList) UnmarshalJSON(data []byte) error {
	*l = nil
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	items := make([]Item, 0, len(raw))
	for _, el := range raw {
		var it Item
		if err := it.UnmarshalJSON(el); err != nil {
			return err
		}
		items = append(items, it)
	}
	*l = items
	return nil
}

func isObject(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '{'
}

// UnmarshalJSON decodes a customer. Non-object values leave it empty.
func (c *Customer) UnmarshalJSON(data []byte) error {
	*c = Customer{}
	if !isObject(data) {
		return nil
	}
	var aux struct {
		Name           text `json:"name"`
		Email          text `json:"email"`
		Phone          text `json:"phone"`
		BillingAddress text `json:"billingAddress"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return nil
	}
	*c = Customer{
		Name:           string(aux.Name),
		Email:          string(aux.Email),
		Phone:          string(aux.Phone),
		BillingAddress: string(aux.BillingAddress),
	}
	return nil
}

// UnmarshalJSON decodes an item, tolerating fields of the wrong type.
func (it *Item) UnmarshalJSON(data []byte) error {
	*it = Item{}
	if !isObject(data) {
		return nil
	}
	var aux struct {
		ID          text    `json:"id"`
		Type        text    `json:"type"`
		Label       text    `json:"label"`
		WidthFt     number  `json:"width_ft"`
		HeightFt    number  `json:"height_ft"`
		Qty         number  `json:"qty"`
		DoubleSided flag    `json:"doubleSided"`
		Lamination  flag    `json:"lamination"`
		Grommets    number  `json:"grommets"`
		UnitPrice   *number `json:"unitPrice"`
		UnitType    text    `json:"unitType"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return nil
	}
	*it = Item{
		ID:          string(aux.ID),
		Type:        string(aux.Type),
		Label:       string(aux.Label),
		WidthFt:     float64(aux.WidthFt),
		HeightFt:    float64(aux.HeightFt),
		Qty:         int(aux.Qty),
		DoubleSided: bool(aux.DoubleSided),
		Lamination:  bool(aux.Lamination),
		Grommets:    int(aux.Grommets),
		UnitPrice:   aux.UnitPrice.ptr(),
		UnitType:    UnitType(aux.UnitType),
	}
	return nil
}

// UnmarshalJSON decodes a job, tolerating fields of the wrong type.
func (j *Job) UnmarshalJSON(data []byte) error {
	*j = Job{}
	if !isObject(data) {
		return nil
	}
	var aux struct {
		SiteAddress text   `json:"siteAddress"`
		InstallDate text   `json:"installDate"`
		Crew        names  `json:"crew"`
		Hours       number `json:"hours"`
		HourlyRate  number `json:"hourlyRate"`
		TaxInstall  flag   `json:"taxInstall"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return nil
	}
	*j = Job{
		SiteAddress: string(aux.SiteAddress),
		InstallDate: string(aux.InstallDate),
		Crew:        []string(aux.Crew),
		Hours:       float64(aux.Hours),
		HourlyRate:  float64(aux.HourlyRate),
		TaxInstall:  bool(aux.TaxInstall),
	}
	return nil
}

// UnmarshalJSON decodes a document, tolerating fields of the wrong type.
// Non-object values leave it empty, which callers treat as having no id.
func (d *Document) UnmarshalJSON(data []byte) error {
	*d = Document{}
	if !isObject(data) {
		return nil
	}
	var aux struct {
		ID           text      `json:"id"`
		Kind         text      `json:"kind"`
		Number       text      `json:"number"`
		Status       text      `json:"status"`
		CreatedAt    timestamp `json:"createdAt"`
		UpdatedAt    timestamp `json:"updatedAt"`
		Customer     Customer  `json:"customer"`
		Job          Job       `json:"job"`
		Terms        text      `json:"terms"`
		Notes        text      `json:"notes"`
		TaxRate      number    `json:"taxRate"`
		Discount     number    `json:"discount"`
		DiscountMode text      `json:"discountMode"`
		Items        itemList  `json:"items"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return nil
	}
	*d = Document{
		ID:           string(aux.ID),
		Kind:         Kind(aux.Kind),
		Number:       string(aux.Number),
		Status:       Status(aux.Status),
		CreatedAt:    time.Time(aux.CreatedAt),
		UpdatedAt:    time.Time(aux.UpdatedAt),
		Customer:     aux.Customer,
		Job:          aux.Job,
		Terms:        string(aux.Terms),
		Notes:        string(aux.Notes),
		TaxRate:      float64(aux.TaxRate),
		Discount:     float64(aux.Discount),
		DiscountMode: DiscountMode(aux.DiscountMode),
		Items:        []Item(aux.Items),
	}
	return nil
}

// Decode parses an imported document. Payloads that are not JSON yield
// ErrInvalidJSON; JSON values without an identity token yield
// ErrNotDocument. Every other field degrades to its zero value when it
// has the wrong type.
func Decode(data []byte) (Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || !json.Valid(data) {
		return Document{}, ErrInvalidJSON
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, ErrNotDocument
	}
	if strings.TrimSpace(doc.ID) == "" {
		return Document{}, ErrNotDocument
	}
	return doc, nil
}

// Encode renders a document as indented JSON, the format used for exports.
func Encode(doc Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// EncodeAll renders a list of documents as an indented JSON array.
func EncodeAll(docs []Document) ([]byte, error) {
	if docs == nil {
		docs = []Document{}
	}
	return json.MarshalIndent(docs, "", "  ")
}
