package form

import (
	"regexp"
	"strconv"
	"strings"
)

// ParamType controls how a submitted value is cleaned before it reaches
// validation and storage.
type ParamType int

const (
	ParamRaw ParamType = iota
	ParamInt
	ParamText
	ParamAlphaNumExt
	ParamBool
)

var (
	tagPattern         = regexp.MustCompile(`<[^>]*>`)
	leadingIntPattern  = regexp.MustCompile(`^[+-]?[0-9]+`)
	alphaNumExtPattern = regexp.MustCompile(`[^A-Za-z0-9_-]`)
)

// Clean normalises value according to t.
func Clean(value string, t ParamType) string {
	switch t {
	case ParamInt:
		m := leadingIntPattern.FindString(strings.TrimSpace(value))
		n, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return "0"
		}
		return strconv.FormatInt(n, 10)
	case ParamText:
		return tagPattern.ReplaceAllString(value, "")
	case ParamAlphaNumExt:
		return alphaNumExtPattern.ReplaceAllString(value, "")
	case ParamBool:
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "1", "true", "yes", "on":
			return "1"
		}
		return "0"
	default:
		return value
	}
}
