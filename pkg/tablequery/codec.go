package tablequery

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Parameter keys owned by the codec.
const (
	KeyQueries     = "queries"
	KeyFilters     = "filters"
	KeyPerPage     = "perPage"
	KeyPage        = "page"
	KeySelectedAll = "isSelectedAll"
)

// ErrInvalidURL is returned when the current location cannot be parsed.
var ErrInvalidURL = errors.New("tablequery: invalid url")

var (
	queryKeyPattern  = regexp.MustCompile(`^queries\[(\d+)\]\[(\w+)\]$`)
	filterKeyPattern = regexp.MustCompile(`^filters\[(\w+)\]\[(\d+)\]$`)
)

// NumericPolicy decides what Decode does with a perPage or page value that is
// not a number.
type NumericPolicy int

const (
	// NumericKeepInvalid surfaces the value as NaN.
	NumericKeepInvalid NumericPolicy = iota

	// NumericFallback replaces the value with the default.
	NumericFallback
)

// ParseNumericPolicy maps "keep" and "fallback" to a policy.
func ParseNumericPolicy(s string) (NumericPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "keep":
		return NumericKeepInvalid, nil
	case "fallback", "default":
		return NumericFallback, nil
	}
	return NumericKeepInvalid, fmt.Errorf("unknown numeric policy %q", s)
}

// String returns the config name of the policy.
func (p NumericPolicy) String() string {
	if p == NumericFallback {
		return "fallback"
	}
	return "keep"
}

// Observer receives codec activity, typically to export metrics.
type Observer interface {
	// ObserveEncode is called after every successful Encode or SetSelectAll.
	ObserveEncode(op string)

	// ObserveDecode is called after every Decode with the number of
	// parameters that were not recognised.
	ObserveDecode(ignored int)
}

// Codec encodes and decodes table state. The zero value is not usable; use New.
// A Codec is safe for concurrent use.
type Codec struct {
	defaultLimit int
	defaultPage  int
	numeric      NumericPolicy
	logger       *slog.Logger
	observer     Observer
}

// Option configures a Codec.
type Option func(*Codec)

// WithDefaults sets the pagination used when the URL has none.
func WithDefaults(limit, page int) Option {
	return func(c *Codec) {
		if limit > 0 {
			c.defaultLimit = limit
		}
		if page > 0 {
			c.defaultPage = page
		}
	}
}

// WithNumericPolicy sets how non-numeric pagination values decode.
func WithNumericPolicy(p NumericPolicy) Option {
	return func(c *Codec) {
		c.numeric = p
	}
}

// WithLogger sets the logger. Ignored parameters are logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Codec) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers an observer for codec activity.
func WithObserver(o Observer) Option {
	return func(c *Codec) {
		c.observer = o
	}
}

// New creates a codec.
func New(opts ...Option) *Codec {
	c := &Codec{
		defaultLimit: DefaultLimit,
		defaultPage:  DefaultPage,
		numeric:      NumericKeepInvalid,
		logger:       slog.Default().With("component", "tablequery"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCodec = New()

// Encode writes p into current with the default codec.
func Encode(current string, p Params) (string, error) {
	return defaultCodec.Encode(current, p)
}

// Decode reads table state from rawURL with the default codec.
func Decode(rawURL string) State {
	return defaultCodec.Decode(rawURL)
}

// SetSelectAll sets or clears the select-all flag with the default codec.
func SetSelectAll(current string, selected bool) (string, error) {
	return defaultCodec.SetSelectAll(current, selected)
}

// Encode returns current with its table parameters replaced by p.
//
// Every key starting with "queries" or "filters", and the perPage and page
// keys, are removed first. Other parameters are kept. Query halves that are
// empty are omitted. The result is origin + path + "?" + parameters; the
// fragment is dropped.
func (c *Codec) Encode(current string, p Params) (string, error) {
	u, values, err := splitURL(current)
	if err != nil {
		return "", err
	}

	for key := range values {
		if isOwnedKey(key) {
			delete(values, key)
		}
	}

	for i, q := range p.Queries {
		if q.Field != "" {
			values.Set(fmt.Sprintf("queries[%d][field]", i), EscapeComponent(q.Field))
		}
		if q.Text != "" {
			values.Set(fmt.Sprintf("queries[%d][text]", i), EscapeComponent(q.Text))
		}
	}

	for _, f := range p.Filters {
		for j, option := range f.Options {
			values.Set(fmt.Sprintf("filters[%s][%d]", f.ID, j), EscapeComponent(option))
		}
	}

	if p.Limit != nil {
		values.Set(KeyPerPage, strconv.Itoa(*p.Limit))
	} else {
		values.Del(KeyPerPage)
	}
	if p.Page != nil {
		values.Set(KeyPage, strconv.Itoa(*p.Page))
	} else {
		values.Del(KeyPage)
	}

	if c.observer != nil {
		c.observer.ObserveEncode("encode")
	}
	return buildURL(u, values), nil
}

// SetSelectAll returns current with isSelectedAll=true when selected, or
// without the key otherwise. No other parameter is touched.
func (c *Codec) SetSelectAll(current string, selected bool) (string, error) {
	u, values, err := splitURL(current)
	if err != nil {
		return "", err
	}
	if selected {
		values.Set(KeySelectedAll, "true")
	} else {
		values.Del(KeySelectedAll)
	}
	if c.observer != nil {
		c.observer.ObserveEncode("select_all")
	}
	return buildURL(u, values), nil
}

// Decode reads table state from a URL. A bare query string starting with '?'
// is accepted too. Decode never fails; see DecodeQuery.
func (c *Codec) Decode(rawURL string) State {
	return c.DecodeQuery(rawQueryOf(rawURL))
}

// DecodeQuery reads table state from a raw query string (without '?').
func (c *Codec) DecodeQuery(rawQuery string) State {
	state := c.defaultState()
	if rawQuery == "" {
		if c.observer != nil {
			c.observer.ObserveDecode(0)
		}
		return state
	}

	queries := make(map[int]TextQuery)
	filters := make(map[string]map[int]string)
	ignored := 0

	for _, p := range parseParams(rawQuery) {
		value := UnescapeComponent(p.value)

		if m := queryKeyPattern.FindStringSubmatch(p.key); m != nil {
			index, err := strconv.Atoi(m[1])
			if err != nil {
				ignored++
				c.logger.Debug("ignoring query parameter", "key", p.key, "error", err)
				continue
			}
			q := queries[index]
			switch m[2] {
			case "field":
				q.Field = value
			case "text":
				q.Text = value
			}
			queries[index] = q
			continue
		}

		if m := filterKeyPattern.FindStringSubmatch(p.key); m != nil {
			index, err := strconv.Atoi(m[2])
			if err != nil {
				ignored++
				c.logger.Debug("ignoring filter parameter", "key", p.key, "error", err)
				continue
			}
			options, ok := filters[m[1]]
			if !ok {
				options = make(map[int]string)
				filters[m[1]] = options
			}
			options[index] = value
			continue
		}

		switch p.key {
		case KeyPerPage:
			n := c.number(value, c.defaultLimit)
			state.PerPage = n
			state.Limit = n
		case KeyPage:
			state.Page = c.number(value, c.defaultPage)
		case KeySelectedAll:
			selected := value == "true"
			state.SelectedAll = &selected
		default:
			ignored++
			c.logger.Debug("ignoring unknown parameter", "key", p.key)
		}
	}

	for _, index := range sortedKeys(queries) {
		q := queries[index]
		if q.Field == "" || q.Text == "" {
			continue
		}
		state.Queries = append(state.Queries, q)
	}

	for id, options := range filters {
		dense := make([]string, 0, len(options))
		for _, index := range sortedKeys(options) {
			dense = append(dense, options[index])
		}
		state.Filters[id] = dense
	}

	if c.observer != nil {
		c.observer.ObserveDecode(ignored)
	}
	return state
}

func (c *Codec) defaultState() State {
	s := DefaultState()
	s.Limit = Number(c.defaultLimit)
	s.PerPage = Number(c.defaultLimit)
	s.Page = Number(c.defaultPage)
	return s
}

func (c *Codec) number(s string, def int) Number {
	n := ParseNumber(s)
	if !n.Valid() && c.numeric == NumericFallback {
		c.logger.Debug("non-numeric pagination value replaced by default", "value", s, "default", def)
		return Number(def)
	}
	return n
}

func isOwnedKey(key string) bool {
	return strings.HasPrefix(key, KeyQueries) ||
		strings.HasPrefix(key, KeyFilters) ||
		key == KeyPerPage ||
		key == KeyPage
}

// splitURL parses current and returns its query parameters.
func splitURL(current string) (*url.URL, url.Values, error) {
	u, err := url.Parse(current)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	values := url.Values{}
	for _, p := range parseParams(u.RawQuery) {
		values.Add(p.key, p.value)
	}
	return u, values, nil
}

func buildURL(u *url.URL, values url.Values) string {
	var b strings.Builder
	if u.Scheme != "" && u.Host != "" {
		b.WriteString(u.Scheme)
		b.WriteString("://")
		b.WriteString(u.Host)
	}
	path := u.EscapedPath()
	if path == "" && u.Host != "" {
		path = "/"
	}
	b.WriteString(path)
	b.WriteByte('?')
	b.WriteString(values.Encode())
	return b.String()
}

// rawQueryOf extracts the query string of rawURL, without '?' or fragment.
func rawQueryOf(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		return u.RawQuery
	}
	_, query, ok := strings.Cut(rawURL, "?")
	if !ok {
		return ""
	}
	query, _, _ = strings.Cut(query, "#")
	return query
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
