// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Debtwise Contributors

package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/invopop/jsonschema"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/debtwise/debtwise/internal/fault"
)

// violationPrinter renders schema violation messages.
var violationPrinter = message.NewPrinter(language.English)

// mustSchema reflects a JSON Schema from a request struct and compiles it.
// Request shapes are fixed at build time, so a failure here is a programmer
// error.
func mustSchema(v any) *jschema.Schema {
	r := jsonschema.Reflector{
		DoNotReference: true,
	}
	raw, err := json.Marshal(r.Reflect(v))
	if err != nil {
		panic(fmt.Sprintf("marshal schema: %v", err))
	}

	doc, err := jschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("parse schema: %v", err))
	}

	c := jschema.NewCompiler()
	if err := c.AddResource("schema.json", doc); err != nil {
		panic(fmt.Sprintf("add schema resource: %v", err))
	}
	sch, err := c.Compile("schema.json")
	if err != nil {
		panic(fmt.Sprintf("compile schema: %v", err))
	}
	return sch
}

// decodeValid reads the request body, validates it against the schema, and
// unmarshals it into dst. Schema violations surface as a ValidationError so
// the classifier produces per-field detail; a body that is not JSON at all
// is a plain bad request.
func decodeValid(r *http.Request, sch *jschema.Schema, dst any) error {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return fault.NewHTTPError(http.StatusBadRequest, "unreadable request body")
	}

	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return fault.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}

	if err := sch.Validate(instance); err != nil {
		var valErr *jschema.ValidationError
		if ok := asValidationError(err, &valErr); ok {
			return fault.NewValidationError(collectViolations(valErr))
		}
		return fault.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return fault.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return nil
}

func asValidationError(err error, target **jschema.ValidationError) bool {
	valErr, ok := err.(*jschema.ValidationError) //nolint:errorlint // Validate returns the error directly
	if ok {
		*target = valErr
	}
	return ok
}

// collectViolations flattens a schema validation tree into per-field
// violation lists keyed by dot-joined field path.
func collectViolations(err *jschema.ValidationError) fault.FieldViolations {
	flat := make(map[string][]string)
	walkViolations(err, flat)

	out := make(fault.FieldViolations, len(flat))
	for field, msgs := range flat {
		out[field] = msgs
	}
	return out
}

func walkViolations(err *jschema.ValidationError, out map[string][]string) {
	if len(err.Causes) > 0 {
		for _, cause := range err.Causes {
			walkViolations(cause, out)
		}
		return
	}

	// Missing required properties are reported on the containing object;
	// attribute each one to its own field path instead.
	if req, ok := err.ErrorKind.(*kind.Required); ok {
		for _, missing := range req.Missing {
			field := joinPath(err.InstanceLocation, missing)
			out[field] = append(out[field], "is required")
		}
		return
	}

	field := joinPath(err.InstanceLocation, "")
	if field == "" {
		field = "body"
	}
	out[field] = append(out[field], err.ErrorKind.LocalizedString(violationPrinter))
}

func joinPath(location []string, leaf string) string {
	parts := location
	if leaf != "" {
		parts = append(append([]string{}, location...), leaf)
	}
	return strings.Join(parts, ".")
}
