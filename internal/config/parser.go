package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/ZebulonRouseFrantzich/tooldef/internal/platform"
	"github.com/ZebulonRouseFrantzich/tooldef/internal/version"
)

const (
	// MaxDefinitionSize is the largest tool definition accepted
	MaxDefinitionSize = 1 << 20
	// DefaultParseTimeout bounds evaluation of a tool definition
	DefaultParseTimeout = 5 * time.Second
)

// Lua schema field names and globals
const (
	luaGlobalTool           = "tool"
	luaFieldName            = "name"
	luaFieldRepo            = "repo"
	luaFieldURLs            = "urls"
	luaFieldURLsFile        = "urls_file"
	luaFieldTagRegex        = "tag_regex"
	luaFieldAssetRegex      = "asset_regex"
	luaFieldTagMappings     = "tag_mappings"
	luaFieldAliases         = "aliases"
	luaFieldArtifactTypes   = "artifact_types"
	luaFieldExtraProperties = "extra_properties"
)

// ParseError represents a tool definition that could not be evaluated.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// Parser evaluates Lua tool definitions.
type Parser struct {
	detector platform.Detector
	logger   *slog.Logger
	timeout  time.Duration
}

// NewParser creates a parser. A nil detector leaves the "platform" global
// undefined.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{
		detector: detector,
		logger:   slog.Default(),
		timeout:  DefaultParseTimeout,
	}
}

// WithLogger returns a copy of the parser logging to logger.
func (p *Parser) WithLogger(logger *slog.Logger) *Parser {
	c := *p
	if logger != nil {
		c.logger = logger
	}
	return &c
}

// WithTimeout returns a copy of the parser with a different evaluation
// timeout.
func (p *Parser) WithTimeout(timeout time.Duration) *Parser {
	c := *p
	c.timeout = timeout
	return &c
}

// ParseFile reads and evaluates the tool definition at path. A relative
// urls_file is resolved against the directory of path.
func (p *Parser) ParseFile(ctx context.Context, path string) (Tool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Tool{}, fmt.Errorf("read tool definition: %w", err)
	}
	if info.Size() > MaxDefinitionSize {
		return Tool{}, &ParseError{
			Message: "tool definition too large",
			Detail:  fmt.Sprintf("%s is %d bytes, maximum is %d", path, info.Size(), MaxDefinitionSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Tool{}, fmt.Errorf("read tool definition: %w", err)
	}

	return p.parse(ctx, string(data), filepath.Dir(path))
}

// ParseString evaluates a tool definition held in memory. A relative
// urls_file is resolved against the working directory.
func (p *Parser) ParseString(ctx context.Context, code string) (Tool, error) {
	if len(code) > MaxDefinitionSize {
		return Tool{}, &ParseError{
			Message: "tool definition too large",
			Detail:  fmt.Sprintf("%d bytes, maximum is %d", len(code), MaxDefinitionSize),
		}
	}
	return p.parse(ctx, code, ".")
}

func (p *Parser) parse(ctx context.Context, code, baseDir string) (Tool, error) {
	L := newSandboxedVM()
	defer L.Close()

	if p.detector != nil {
		info, err := p.detector.Detect(ctx)
		if err != nil {
			return Tool{}, fmt.Errorf("detect platform: %w", err)
		}
		platform.InjectLuaTable(L, info)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	L.SetContext(ctx)

	if err := L.DoString(code); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Tool{}, &ParseError{Message: "tool definition evaluation timed out", Detail: p.timeout.String()}
		}
		if ctx.Err() != nil {
			return Tool{}, ctx.Err()
		}
		return Tool{}, &ParseError{Message: "Lua error", Detail: trimTraceback(err.Error())}
	}

	tool, err := extractTool(L, baseDir)
	if err != nil {
		return Tool{}, err
	}

	tool = tool.WithDefaults()
	if err := tool.Validate(); err != nil {
		return Tool{}, err
	}

	source := "repo"
	if tool.Repo == "" {
		source = "urls"
	}
	p.logger.Debug("parsed tool definition", "tool", tool.Name, "source", source, "alias_mode", tool.AliasMode)
	return tool, nil
}

func trimTraceback(detail string) string {
	if idx := strings.Index(detail, "stack traceback"); idx > 0 {
		return strings.TrimSpace(detail[:idx])
	}
	return detail
}

// extractTool reads the global "tool" table.
func extractTool(L *lua.LState, baseDir string) (Tool, error) {
	value := L.GetGlobal(luaGlobalTool)
	table, ok := value.(*lua.LTable)
	if !ok {
		return Tool{}, &ParseError{
			Message: "missing or invalid 'tool' table",
			Detail:  fmt.Sprintf("expected table, got %s", value.Type()),
		}
	}

	var (
		tool Tool
		err  error
	)

	if tool.Name, err = stringField(table, luaFieldName); err != nil {
		return Tool{}, err
	}
	if tool.Repo, err = stringField(table, luaFieldRepo); err != nil {
		return Tool{}, err
	}
	if tool.TagRegex, err = stringField(table, luaFieldTagRegex); err != nil {
		return Tool{}, err
	}
	if tool.AssetRegex, err = stringField(table, luaFieldAssetRegex); err != nil {
		return Tool{}, err
	}

	aliases, err := stringField(table, luaFieldAliases)
	if err != nil {
		return Tool{}, err
	}
	if tool.AliasMode, err = version.ParseAliasMode(aliases); err != nil {
		return Tool{}, &ValidationError{Field: luaFieldAliases, Message: err.Error()}
	}

	if tool.TagMappings, err = ruleList(table, luaFieldTagMappings); err != nil {
		return Tool{}, err
	}
	if tool.ArtifactTypes, err = ruleList(table, luaFieldArtifactTypes); err != nil {
		return Tool{}, err
	}
	if tool.ExtraProperties, err = propertyRuleList(table, luaFieldExtraProperties); err != nil {
		return Tool{}, err
	}

	inline, err := urlTable(table, luaFieldURLs)
	if err != nil {
		return Tool{}, err
	}
	file, err := stringField(table, luaFieldURLsFile)
	if err != nil {
		return Tool{}, err
	}
	switch {
	case file != "" && inline != nil:
		return Tool{}, &ValidationError{Field: luaFieldURLsFile, Message: "urls and urls_file are mutually exclusive"}
	case file != "":
		if !filepath.IsAbs(file) {
			file = filepath.Join(baseDir, file)
		}
		if tool.URLs, err = ReadURLMap(file); err != nil {
			return Tool{}, err
		}
	default:
		tool.URLs = inline
	}

	return tool, nil
}

func stringField(table *lua.LTable, field string) (string, error) {
	switch v := table.RawGetString(field).(type) {
	case *lua.LNilType:
		return "", nil
	case lua.LString:
		return string(v), nil
	default:
		return "", &ParseError{
			Message: fmt.Sprintf("field '%s' must be a string", field),
			Detail:  fmt.Sprintf("got %s", v.Type()),
		}
	}
}

// listOf returns the array part of the table stored in field. Tables with
// non-sequence keys are rejected since their iteration order is undefined.
func listOf(table *lua.LTable, field string) ([]lua.LValue, error) {
	value := table.RawGetString(field)
	if value == lua.LNil {
		return nil, nil
	}
	list, ok := value.(*lua.LTable)
	if !ok {
		return nil, &ParseError{
			Message: fmt.Sprintf("field '%s' must be a list", field),
			Detail:  fmt.Sprintf("got %s", value.Type()),
		}
	}

	n := list.Len()
	count := 0
	list.ForEach(func(lua.LValue, lua.LValue) { count++ })
	if count != n {
		return nil, &ParseError{
			Message: fmt.Sprintf("field '%s' must be a list", field),
			Detail:  "use { { pattern, value }, ... } so that rule order is preserved",
		}
	}

	items := make([]lua.LValue, 0, n)
	for i := 1; i <= n; i++ {
		items = append(items, list.RawGetInt(i))
	}
	return items, nil
}

// pair unpacks a { pattern, value } entry.
func pair(field string, index int, item lua.LValue) (string, lua.LValue, error) {
	entry, ok := item.(*lua.LTable)
	if !ok || entry.Len() != 2 {
		return "", nil, &ParseError{
			Message: fmt.Sprintf("%s[%d] must be a { pattern, value } pair", field, index),
			Detail:  fmt.Sprintf("got %s", item.Type()),
		}
	}
	pattern, ok := entry.RawGetInt(1).(lua.LString)
	if !ok {
		return "", nil, &ParseError{
			Message: fmt.Sprintf("%s[%d] pattern must be a string", field, index),
		}
	}
	return string(pattern), entry.RawGetInt(2), nil
}

func ruleList(table *lua.LTable, field string) ([]Rule, error) {
	items, err := listOf(table, field)
	if err != nil {
		return nil, err
	}

	var rules []Rule
	for i, item := range items {
		pattern, value, err := pair(field, i+1, item)
		if err != nil {
			return nil, err
		}
		s, ok := value.(lua.LString)
		if !ok {
			return nil, &ParseError{
				Message: fmt.Sprintf("%s[%d] value must be a string", field, i+1),
				Detail:  fmt.Sprintf("got %s", value.Type()),
			}
		}
		rules = append(rules, Rule{Pattern: pattern, Value: string(s)})
	}
	return rules, nil
}

func propertyRuleList(table *lua.LTable, field string) ([]PropertyRule, error) {
	items, err := listOf(table, field)
	if err != nil {
		return nil, err
	}

	var rules []PropertyRule
	for i, item := range items {
		pattern, value, err := pair(field, i+1, item)
		if err != nil {
			return nil, err
		}
		bag, ok := value.(*lua.LTable)
		if !ok {
			return nil, &ParseError{
				Message: fmt.Sprintf("%s[%d] properties must be a table", field, i+1),
				Detail:  fmt.Sprintf("got %s", value.Type()),
			}
		}

		var props []Property
		var bagErr error
		bag.ForEach(func(k, v lua.LValue) {
			key, ok := k.(lua.LString)
			if !ok {
				if bagErr == nil {
					bagErr = &ParseError{Message: fmt.Sprintf("%s[%d] property names must be strings", field, i+1)}
				}
				return
			}
			switch v.(type) {
			case lua.LString, lua.LNumber, lua.LBool:
				props = append(props, Property{Key: string(key), Value: v.String()})
			default:
				if bagErr == nil {
					bagErr = &ParseError{
						Message: fmt.Sprintf("%s[%d] property '%s' must be a string, number or boolean", field, i+1, key),
						Detail:  fmt.Sprintf("got %s", v.Type()),
					}
				}
			}
		})
		if bagErr != nil {
			return nil, bagErr
		}
		sort.Slice(props, func(a, b int) bool { return props[a].Key < props[b].Key })

		rules = append(rules, PropertyRule{Pattern: pattern, Properties: props})
	}
	return rules, nil
}

// urlTable reads { [version] = url | { url, ... } }. Versions are sorted.
func urlTable(table *lua.LTable, field string) (URLMap, error) {
	value := table.RawGetString(field)
	if value == lua.LNil {
		return nil, nil
	}
	m, ok := value.(*lua.LTable)
	if !ok {
		return nil, &ParseError{
			Message: fmt.Sprintf("field '%s' must be a table", field),
			Detail:  fmt.Sprintf("got %s", value.Type()),
		}
	}

	var (
		result URLMap
		err    error
	)
	m.ForEach(func(k, v lua.LValue) {
		if err != nil {
			return
		}
		ver, ok := k.(lua.LString)
		if !ok {
			err = &ParseError{Message: fmt.Sprintf("%s keys must be version strings", field), Detail: fmt.Sprintf("got %s", k.Type())}
			return
		}
		entry := VersionURLs{Version: string(ver)}
		switch v := v.(type) {
		case lua.LString:
			entry.URLs = []string{string(v)}
		case *lua.LTable:
			for i := 1; i <= v.Len(); i++ {
				u, ok := v.RawGetInt(i).(lua.LString)
				if !ok {
					err = &ParseError{Message: fmt.Sprintf("%s[%q] must only contain URL strings", field, ver)}
					return
				}
				entry.URLs = append(entry.URLs, string(u))
			}
		default:
			err = &ParseError{Message: fmt.Sprintf("%s[%q] must be a URL or a list of URLs", field, ver), Detail: fmt.Sprintf("got %s", v.Type())}
			return
		}
		result = append(result, entry)
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Version < result[j].Version })
	return result, nil
}
