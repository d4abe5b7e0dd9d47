package catalog

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Dialect identifies which catalog schema a document was written in.
type Dialect int

const (
	DialectUnknown Dialect = iota

	// DialectLegacy is the pre-STAC VPC layout: {"vpc", "metadata", "files"}.
	DialectLegacy

	// DialectSTAC is a STAC ItemCollection of point cloud items.
	DialectSTAC
)

func (d Dialect) String() string {
	switch d {
	case DialectLegacy:
		return "vpc"
	case DialectSTAC:
		return "stac"
	default:
		return "unknown"
	}
}

//go:embed schema/*.json
var schemaFS embed.FS

type schemaSet struct {
	legacy *jsonschema.Schema
	stac   *jsonschema.Schema
	item   *jsonschema.Schema
}

var (
	compiledSchemas *schemaSet
	compileOnce     sync.Once
	compileErr      error
	printer         = message.NewPrinter(language.English)
)

// schemas compiles the embedded schemas once.
func schemas() (*schemaSet, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		names := []string{"legacy.schema.json", "stac.schema.json", "item.schema.json"}
		for _, name := range names {
			raw, err := schemaFS.ReadFile("schema/" + name)
			if err != nil {
				compileErr = fmt.Errorf("read schema %s: %w", name, err)
				return
			}
			doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
			if err != nil {
				compileErr = fmt.Errorf("unmarshal schema %s: %w", name, err)
				return
			}
			if err := c.AddResource(name, doc); err != nil {
				compileErr = fmt.Errorf("add schema %s: %w", name, err)
				return
			}
		}

		set := &schemaSet{}
		targets := []struct {
			name string
			dst  **jsonschema.Schema
		}{
			{"legacy.schema.json", &set.legacy},
			{"stac.schema.json", &set.stac},
			{"item.schema.json", &set.item},
		}
		for _, t := range targets {
			s, err := c.Compile(t.name)
			if err != nil {
				compileErr = fmt.Errorf("compile schema %s: %w", t.name, err)
				return
			}
			*t.dst = s
		}
		compiledSchemas = set
	})
	return compiledSchemas, compileErr
}

// detectDialect picks the dialect whose mandatory markers are all present.
//
// A document has to satisfy every required field of exactly one dialect.
// Matching both is treated as ambiguous rather than guessed.
func detectDialect(doc any) (Dialect, error) {
	s, err := schemas()
	if err != nil {
		return DialectUnknown, err
	}

	legacyErr := s.legacy.Validate(doc)
	stacErr := s.stac.Validate(doc)

	switch {
	case legacyErr == nil && stacErr == nil:
		return DialectUnknown, &FormatError{Reason: "document carries the markers of both catalog dialects"}
	case legacyErr == nil:
		return DialectLegacy, nil
	case stacErr == nil:
		return DialectSTAC, nil
	}

	return DialectUnknown, &FormatError{
		Reason: fmt.Sprintf("not a virtual point cloud catalog (vpc: %s; stac: %s)",
			schemaReason(legacyErr), schemaReason(stacErr)),
	}
}

// validateItem checks one STAC feature against the item schema and returns a
// readable reason when it does not conform.
func validateItem(item any) (string, bool) {
	s, err := schemas()
	if err != nil {
		return err.Error(), false
	}
	if err := s.item.Validate(item); err != nil {
		return schemaReason(err), false
	}
	return "", true
}

// schemaReason flattens a validation error into "path: message" pairs.
func schemaReason(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}

	var parts []string
	collectReasons(ve, &parts)
	if len(parts) == 0 {
		return ve.Error()
	}
	return strings.Join(parts, "; ")
}

func collectReasons(ve *jsonschema.ValidationError, parts *[]string) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			collectReasons(cause, parts)
		}
		return
	}
	if ve.ErrorKind == nil {
		return
	}

	msg := ve.ErrorKind.LocalizedString(printer)
	if len(ve.InstanceLocation) > 0 {
		msg = "/" + strings.Join(ve.InstanceLocation, "/") + ": " + msg
	}
	*parts = append(*parts, msg)
}
