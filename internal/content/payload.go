// Package content defines the typed payloads of content blocks. Every block
// type has its own schema; Decode validates raw JSON against it.
package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"manualdesk/internal/apperr"
	"manualdesk/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func init() {
	// сообщения об ошибках с именами из json, а не из Go
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Payload is implemented by every block variant.
type Payload interface {
	BlockType() models.BlockType
}

type Text struct {
	Title  string `json:"title,omitempty" validate:"max=300"`
	Text   string `json:"text" validate:"required"`
	Format string `json:"format,omitempty" validate:"omitempty,oneof=plain markdown html"`
}

type Image struct {
	Src     string `json:"src" validate:"required,max=2048"`
	Alt     string `json:"alt,omitempty" validate:"max=300"`
	Caption string `json:"caption,omitempty" validate:"max=500"`
}

type Table struct {
	Caption string     `json:"caption,omitempty" validate:"max=500"`
	Headers []string   `json:"headers,omitempty"`
	Rows    [][]string `json:"rows" validate:"required,min=1"`
}

type ChecklistItem struct {
	Text    string `json:"text" validate:"required"`
	Checked bool   `json:"checked"`
}

type Checklist struct {
	Title string          `json:"title,omitempty" validate:"max=300"`
	Items []ChecklistItem `json:"items" validate:"required,min=1,dive"`
}

type Diagram struct {
	Format  string `json:"format" validate:"required,oneof=mermaid plantuml svg"`
	Source  string `json:"source" validate:"required"`
	Caption string `json:"caption,omitempty" validate:"max=500"`
}

type Tab struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content"`
}

type Tabs struct {
	Tabs []Tab `json:"tabs" validate:"required,min=1,dive"`
}

func (Text) BlockType() models.BlockType      { return models.BlockText }
func (Image) BlockType() models.BlockType     { return models.BlockImage }
func (Table) BlockType() models.BlockType     { return models.BlockTable }
func (Checklist) BlockType() models.BlockType { return models.BlockChecklist }
func (Diagram) BlockType() models.BlockType   { return models.BlockDiagram }
func (Tabs) BlockType() models.BlockType      { return models.BlockTabs }

func newPayload(t models.BlockType) (Payload, bool) {
	switch t {
	case models.BlockText:
		return &Text{}, true
	case models.BlockImage:
		return &Image{}, true
	case models.BlockTable:
		return &Table{}, true
	case models.BlockChecklist:
		return &Checklist{}, true
	case models.BlockDiagram:
		return &Diagram{}, true
	case models.BlockTabs:
		return &Tabs{}, true
	}
	return nil, false
}

// ValidType reports whether t is a known block type.
func ValidType(t models.BlockType) bool {
	_, ok := newPayload(t)
	return ok
}

// Decode parses raw as the payload of block type t and validates it.
// Unknown fields are rejected.
func Decode(t models.BlockType, raw []byte) (Payload, error) {
	p, ok := newPayload(t)
	if !ok {
		return nil, apperr.ValidationFields("invalid block type", map[string]string{
			"type": fmt.Sprintf("%q is not a valid block type", t),
		})
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, apperr.ValidationFields("block data is required", map[string]string{"data": "required"})
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(p); err != nil {
		return nil, apperr.ValidationFields("malformed block data", map[string]string{"data": err.Error()})
	}

	if err := validate.Struct(p); err != nil {
		return nil, validationError(err)
	}
	if tbl, ok := p.(*Table); ok {
		if err := checkTableShape(tbl); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Encode serialises a payload for storage.
func Encode(p Payload) ([]byte, error) {
	return json.Marshal(p)
}

// Normalize decodes and re-encodes raw so that stored data matches the schema.
func Normalize(t models.BlockType, raw []byte) ([]byte, error) {
	p, err := Decode(t, raw)
	if err != nil {
		return nil, err
	}
	return Encode(p)
}

func checkTableShape(t *Table) error {
	width := len(t.Headers)
	for i, row := range t.Rows {
		if width == 0 {
			width = len(row)
		}
		if len(row) != width {
			return apperr.ValidationFields("table rows must have the same number of cells", map[string]string{
				fmt.Sprintf("data.rows[%d]", i): fmt.Sprintf("expected %d cells, got %d", width, len(row)),
			})
		}
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("invalid block data: %v", err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		// Namespace вида "Checklist.items[0].text", имя типа отрезаем
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		fields["data."+ns] = describe(fe)
	}
	return apperr.ValidationFields("invalid block data", fields)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return "must contain at least " + fe.Param() + " item(s)"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	}
	return "failed " + fe.Tag() + " check"
}
