package manifest

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaSource string

// Event is the event a manifest declares.
type Event struct {
	Authority     string `json:"authority"`
	ID            string `json:"id"`
	Title         string `json:"title"`
	Symbol        string `json:"symbol"`
	URI           string `json:"uri"`
	Currency      string `json:"currency"`
	FeeVault      bool   `json:"fee_vault"`
	CheckInPolicy string `json:"check_in_policy"`
}

// Class is one declared ticket class.
type Class struct {
	Name              string `json:"name"`
	Symbol            string `json:"symbol"`
	URI               string `json:"uri"`
	Price             uint64 `json:"price"`
	Quantity          uint64 `json:"quantity"`
	Uses              uint64 `json:"uses"`
	ProofOfAttendance bool   `json:"proof_of_attendance"`
}

// Manifest is a validated manifest with defaults filled in.
type Manifest struct {
	Event         Event            `json:"event"`
	Collaborators []string         `json:"collaborators"`
	Classes       map[string]Class `json:"classes"`
}

// Seeds returns the class seeds in sorted order.
func (m *Manifest) Seeds() []string {
	seeds := make([]string, 0, len(m.Classes))
	for s := range m.Classes {
		seeds = append(seeds, s)
	}
	sort.Strings(seeds)
	return seeds
}

// Error is a manifest that failed to parse or validate.
type Error struct {
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// LoadFile reads and validates a manifest file.
func LoadFile(path string) (*Manifest, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(path, src)
}

// Parse validates src against the manifest schema. filename is used in
// error positions only.
func Parse(filename string, src []byte) (*Manifest, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile manifest schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Manifest"))

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v = def.Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var m Manifest
	if err := v.Decode(&m); err != nil {
		return nil, formatCUEError(err)
	}
	return &m, nil
}

// formatCUEError keeps the first error and its position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &Error{Message: err.Error()}
	}
	first := errs[0]
	e := &Error{Message: first.Error()}
	if pos := errors.Positions(first); len(pos) > 0 {
		e.Pos = pos[0]
	}
	return e
}
