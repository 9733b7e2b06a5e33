package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Tag is a named boolean classification rule. The description is shown to
// the model verbatim; the name never is.
type Tag struct {
	// ID is the unique identifier.
	ID string

	// Name is the unique human-facing name.
	Name string

	// Description is the natural-language rule the model evaluates against.
	Description string

	// UseSummary selects the evaluation input: the stored summary when
	// true, freshly extracted full text when false.
	UseSummary bool

	// AnyTags, AndTags and NotAnyTags form an optional pre-filter: only
	// documents matching the expression over already-assigned tags are
	// considered for this tag. All empty means no pre-filter.
	AnyTags    []string
	AndTags    []string
	NotAnyTags []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPreFilter reports whether the tag restricts its candidate documents.
func (t *Tag) HasPreFilter() bool {
	return len(t.AnyTags) > 0 || len(t.AndTags) > 0 || len(t.NotAnyTags) > 0
}

// TagDefinition is a tag as declared in configuration, before it has been
// synced into the store.
type TagDefinition struct {
	Name        string
	Description string
	UseSummary  bool
	AnyTags     []string
	AndTags     []string
	NotAnyTags  []string
}

// PropertyHash returns a stable hash over the tag's defining properties.
// When the hash changes, existing assignments for the tag are stale and
// must be invalidated.
func (t *TagDefinition) PropertyHash() string {
	var b strings.Builder
	b.WriteString(t.Description)
	b.WriteByte(0x1f)
	b.WriteString(strconv.FormatBool(t.UseSummary))
	for _, list := range [][]string{t.AnyTags, t.AndTags, t.NotAnyTags} {
		b.WriteByte(0x1f)
		b.WriteString(strings.Join(list, "\x1e"))
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Definition converts a stored tag back into its configuration shape,
// used when recomputing property hashes.
func (t *Tag) Definition() TagDefinition {
	return TagDefinition{
		Name:        t.Name,
		Description: t.Description,
		UseSummary:  t.UseSummary,
		AnyTags:     t.AnyTags,
		AndTags:     t.AndTags,
		NotAnyTags:  t.NotAnyTags,
	}
}

// TagAssignment records an evaluation outcome for one (document, tag)
// pair. An explicit false is stored so that "known non-match" is
// distinguishable from "never evaluated".
type TagAssignment struct {
	DocumentID  string
	TagID       string
	Matches     bool
	EvaluatedAt time.Time
}
