package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// AnswerKind tags the encoding of a stored answer key.
type AnswerKind int

const (
	// AnswerIndex is the current choice encoding: an option index.
	AnswerIndex AnswerKind = iota
	// AnswerBool is the current judge encoding.
	AnswerBool
	// AnswerString covers free-text keys and the legacy choice/judge
	// encodings that stored the raw answer text.
	AnswerString
)

// AnswerKey is the tagged union behind the heterogeneous `answer` field.
// Session units written by older releases hold strings where newer ones
// hold indices or booleans; decoding resolves the shape once, at the
// boundary, so scoring never inspects raw JSON.
type AnswerKey struct {
	Kind  AnswerKind
	Index int
	Bool  bool
	Text  string
}

// IndexKey returns an index-encoded choice key.
func IndexKey(i int) AnswerKey { return AnswerKey{Kind: AnswerIndex, Index: i} }

// BoolKey returns a bool-encoded judge key.
func BoolKey(b bool) AnswerKey { return AnswerKey{Kind: AnswerBool, Bool: b} }

// TextKey returns a text-encoded key.
func TextKey(s string) AnswerKey { return AnswerKey{Kind: AnswerString, Text: s} }

// UnmarshalJSON accepts a JSON number, boolean, or string.
func (k *AnswerKey) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch {
	case s == "null":
		*k = TextKey("")
		return nil
	case s == "true" || s == "false":
		*k = BoolKey(s == "true")
		return nil
	case strings.HasPrefix(s, `"`):
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*k = TextKey(text)
		return nil
	default:
		// Generators occasionally emit floats; truncate like a cast would.
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("answer key: unsupported JSON value %s", s)
		}
		*k = IndexKey(int(f))
		return nil
	}
}

// MarshalJSON writes the underlying value back in its native encoding.
func (k AnswerKey) MarshalJSON() ([]byte, error) {
	switch k.Kind {
	case AnswerIndex:
		return json.Marshal(k.Index)
	case AnswerBool:
		return json.Marshal(k.Bool)
	default:
		return json.Marshal(k.Text)
	}
}

func (k AnswerKey) String() string {
	switch k.Kind {
	case AnswerIndex:
		return strconv.Itoa(k.Index)
	case AnswerBool:
		return strconv.FormatBool(k.Bool)
	default:
		return k.Text
	}
}
