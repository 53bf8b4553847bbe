/*
Copyright 2023 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package juice

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	gotoken "go/token"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strconv"

	"github.com/dynsql/dynsql/indent"
	"github.com/dynsql/dynsql/markup"
	"github.com/dynsql/dynsql/sql"
)

// ConfigurationParser is the interface for parsing configuration.
type ConfigurationParser interface {
	// Parse parses the configuration from the reader.
	Parse(reader io.Reader) (IConfiguration, error)
}

// XMLParser is the parser for XML configuration.
type XMLParser struct {
	configuration Configuration
	FS            fs.FS
	ignoreEnv     bool
	parsers       []XMLElementParser
}

// Parse implements ConfigurationParser.
func (p *XMLParser) Parse(reader io.Reader) (IConfiguration, error) {
	parserChain := XMLElementParserChain(p.parsers)
	decoder := xml.NewDecoder(reader)
	for {
		token, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		startElement, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		if err = parserChain.ParseElement(p, decoder, startElement); err != nil {
			if !errors.Is(err, errNoXMLElementMatched) {
				return nil, err
			}
		}
	}
	return &p.configuration, nil
}

func (p *XMLParser) AddXMLElementParser(parsers ...XMLElementParser) {
	p.parsers = append(p.parsers, parsers...)
}

type XMLElementParser interface {
	ParseElement(parser *XMLParser, decoder *xml.Decoder, token xml.StartElement) error
	MatchElement(token xml.StartElement) bool
}

// errNoXMLElementMatched is an error that indicates no XML element matched the expected criteria.
var errNoXMLElementMatched = errors.New("no xml element matched")

type XMLElementParserChain []XMLElementParser

func (xs XMLElementParserChain) ParseElement(parser *XMLParser, decoder *xml.Decoder, token xml.StartElement) error {
	for _, x := range xs {
		if x.MatchElement(token) {
			return x.ParseElement(parser, decoder, token)
		}
	}
	return errNoXMLElementMatched
}

type XMLEnvironmentsElementParser struct{}

func (p *XMLEnvironmentsElementParser) MatchElement(token xml.StartElement) bool {
	return token.Name.Local == "environments"
}

func (p *XMLEnvironmentsElementParser) ParseElement(parser *XMLParser, decoder *xml.Decoder, token xml.StartElement) error {
	if parser.ignoreEnv {
		return nil
	}
	envs, err := p.parseEnvironments(decoder, token)
	if err != nil {
		return err
	}
	parser.configuration.environments = envs
	return err
}

func (p *XMLEnvironmentsElementParser) parseEnvironment(decoder *xml.Decoder, token xml.StartElement) (*Environment, error) {
	var env = &Environment{}
	for _, attr := range token.Attr {
		env.setAttr(attr.Name.Local, attr.Value)
	}
	id := env.ID()
	if id != "" {
		if !gotoken.IsIdentifier(id) {
			return nil, fmt.Errorf("environment id is invalid: %s", id)
		}
	} else {
		return nil, errors.New("environment id is required")
	}
	provider := env.provider()
	for {
		token, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		switch token := token.(type) {
		case xml.StartElement:
			tokenName := token.Name.Local
			switch tokenName {
			case "dataSource":
				env.DataSource, err = parseString(tokenName, decoder, provider)
				if err != nil {
					return nil, err
				}
			case "driver":
				env.Driver, err = parseString(tokenName, decoder, provider)
				if err != nil {
					return nil, err
				}
			case "maxIdleConnNum":
				env.MaxIdleConnNum, err = parseInt(tokenName, decoder, provider)
				if err != nil {
					return nil, err
				}
			case "maxOpenConnNum":
				env.MaxOpenConnNum, err = parseInt(tokenName, decoder, provider)
				if err != nil {
					return nil, err
				}
			case "maxConnLifetime":
				env.MaxConnLifetime, err = parseInt(tokenName, decoder, provider)
				if err != nil {
					return nil, err
				}
			case "maxIdleConnLifetime":
				env.MaxIdleConnLifetime, err = parseInt(tokenName, decoder, provider)
				if err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if token.Name.Local == "environment" {
				return env, nil
			}
		}
	}
	return nil, &nodeUnclosedError{nodeName: "environment"}
}

func (p *XMLEnvironmentsElementParser) parseEnvironments(decoder *xml.Decoder, token xml.StartElement) (*environments, error) {
	var envs environments
	for _, attr := range token.Attr {
		envs.setAttr(attr.Name.Local, attr.Value)
	}
	if envs.Attribute("default") == "" {
		return nil, errors.New("default environment is not specified")
	}
	for {
		token, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		switch token := token.(type) {
		case xml.StartElement:
			if token.Name.Local == "environment" {
				environment, err := p.parseEnvironment(decoder, token)
				if err != nil {
					return nil, err
				}
				if _, exists := envs.envs[environment.ID()]; exists {
					return nil, fmt.Errorf("duplicate environment id: %s", environment.ID())
				}
				if envs.envs == nil {
					envs.envs = make(map[string]*Environment)
				}
				envs.envs[environment.ID()] = environment
			}
		case xml.EndElement:
			if token.Name.Local == "environments" {
				return &envs, nil
			}
		}
	}
	return nil, &nodeUnclosedError{nodeName: "environments"}
}

type XMLSettingsElementParser struct{}

func (p *XMLSettingsElementParser) MatchElement(token xml.StartElement) bool {
	return token.Name.Local == "settings"
}

func (p *XMLSettingsElementParser) ParseElement(parser *XMLParser, decoder *xml.Decoder, token xml.StartElement) error {
	settings, err := p.parseSettings(decoder)
	if err != nil {
		return err
	}
	parser.configuration.settings = settings
	return nil
}

func (p *XMLSettingsElementParser) parseSettings(decoder *xml.Decoder) (keyValueSettingProvider, error) {
	var settings = make(keyValueSettingProvider)

	for {
		token, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}

		switch t := token.(type) {
		case xml.EndElement:
			if t.Name.Local == "settings" {
				return settings, nil
			}
		case xml.StartElement:
			if t.Name.Local != "setting" {
				continue
			}
			var item settingItem
			if err := decoder.DecodeElement(&item, &t); err != nil {
				return nil, err
			}
			if _, ok := settings[item.Name]; ok {
				return nil, fmt.Errorf("duplicate setting name: %s", item.Name)
			}
			settings[item.Name] = item.Value
		}
	}

	return settings, nil
}

// XMLMappersElementParser parses the <mappers> element. Each <mapper>
// it finds — inline, by resource, by url, or matched via a glob
// pattern — is handed off whole to one of the two statement front
// ends (package markup for XML sources, package indent for
// indentation sources, chosen by file extension); this parser's own
// job stops at locating mapper documents and merging what the front
// ends hand back, it no longer walks dynamic-SQL tags itself.
type XMLMappersElementParser struct {
	parser *XMLParser
}

func (p *XMLMappersElementParser) MatchElement(token xml.StartElement) bool {
	return token.Name.Local == "mappers"
}

func (p *XMLMappersElementParser) ParseElement(parser *XMLParser, decoder *xml.Decoder, token xml.StartElement) error {
	p.parser = parser
	mappers, err := p.parseMappers(token, decoder)
	if err != nil {
		return err
	}
	mappers.cfg = &parser.configuration
	parser.configuration.mappers = mappers
	return nil
}

// frontEndMapper holds whichever front end parsed one mapper document.
// Exactly one of markup/indent is set.
type frontEndMapper struct {
	markup *markup.Mapper
	indent *indent.Mapper
}

func (p *XMLMappersElementParser) parseMappers(start xml.StartElement, decoder *xml.Decoder) (*Mappers, error) {
	mappers := &Mappers{}
	for _, attr := range start.Attr {
		mappers.setAttribute(attr.Name.Local, attr.Value)
	}

	var fronts []frontEndMapper

	if pattern := mappers.Attribute("pattern"); pattern != "" {
		matched, err := p.parseMapperByPattern(pattern)
		if err != nil {
			return nil, err
		}
		fronts = append(fronts, matched...)
	}

	for {
		token, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "mapper" {
				front, err := p.parseMapperElement(decoder, t)
				if err != nil {
					return nil, err
				}
				fronts = append(fronts, front)
			}
		case xml.EndElement:
			if t.Name.Local == "mappers" {
				return p.buildMappers(mappers, fronts)
			}
		}
	}
	return nil, &nodeUnclosedError{nodeName: "mappers"}
}

// parseMapperElement handles one <mapper> element nested directly
// inside <mappers>: it is either a pointer to another document
// (resource, a local path resolved against XMLParser.FS; or url, an
// http(s)/file URL) or an inline mapper whose body is the dynamic SQL
// itself, in which case the subtree is re-encoded into a standalone
// document and fed through the same front end an external file would
// use.
func (p *XMLMappersElementParser) parseMapperElement(decoder *xml.Decoder, token xml.StartElement) (frontEndMapper, error) {
	attrs := make(map[string]string, len(token.Attr))
	for _, a := range token.Attr {
		attrs[a.Name.Local] = a.Value
	}

	resource := attrs["resource"]
	_url := attrs["url"]
	namespace := attrs["namespace"]

	switch {
	case resource != "" && _url != "":
		return frontEndMapper{}, &nodeAttributeConflictError{nodeName: "mapper", attrName: "resource|url"}
	case resource != "" && namespace != "":
		return frontEndMapper{}, &nodeAttributeConflictError{nodeName: "mapper", attrName: "resource|namespace"}
	case _url != "" && namespace != "":
		return frontEndMapper{}, &nodeAttributeConflictError{nodeName: "mapper", attrName: "url|namespace"}
	case resource == "" && _url == "" && namespace == "":
		return frontEndMapper{}, &nodeAttributeRequiredError{nodeName: "mapper", attrName: "resource|url|namespace"}
	}

	if resource != "" {
		return p.parseMapperByResource(resource)
	}
	if _url != "" {
		return p.parseMapperByURL(_url)
	}

	// Inline: the <mapper namespace="..."> element and everything up to
	// its matching close tag is re-encoded as a standalone document,
	// the same shape parseMapperByResource hands the front end.
	sub, err := reencodeSubtree(decoder, token)
	if err != nil {
		return frontEndMapper{}, err
	}
	m, err := markup.Parse(sub)
	if err != nil {
		return frontEndMapper{}, err
	}
	return frontEndMapper{markup: m}, nil
}

// parseFrontEnd picks markup or indent by the source name's extension
// and parses r with it. Anything not ending in .xml is assumed to be
// an indentation document; this mirrors how a real project would name
// its two kinds of mapper files (user.xml vs user.isql, say).
func (p *XMLMappersElementParser) parseFrontEnd(name string, r io.Reader) (frontEndMapper, error) {
	if path.Ext(name) == ".xml" {
		m, err := markup.Parse(r)
		if err != nil {
			return frontEndMapper{}, err
		}
		return frontEndMapper{markup: m}, nil
	}
	m, err := indent.Parse(r)
	if err != nil {
		return frontEndMapper{}, err
	}
	return frontEndMapper{indent: m}, nil
}

func (p *XMLMappersElementParser) parseMapperByResource(resource string) (frontEndMapper, error) {
	reader, err := p.parser.FS.Open(resource)
	if err != nil {
		return frontEndMapper{}, err
	}
	defer func() { _ = reader.Close() }()
	return p.parseFrontEnd(resource, reader)
}

func (p *XMLMappersElementParser) parseMapperByHttpResponse(rawURL string) (frontEndMapper, error) {
	resp, err := http.Get(rawURL)
	if err != nil {
		return frontEndMapper{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	return p.parseFrontEnd(rawURL, resp.Body)
}

func (p *XMLMappersElementParser) parseMapperByURL(rawURL string) (frontEndMapper, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return frontEndMapper{}, err
	}
	switch u.Scheme {
	case "file":
		return p.parseMapperByResource(u.Path)
	case "http", "https":
		return p.parseMapperByHttpResponse(rawURL)
	default:
		return frontEndMapper{}, errors.New("invalid url schema")
	}
}

func (p *XMLMappersElementParser) parseMapperByPattern(pattern string) ([]frontEndMapper, error) {
	fsys := p.parser.FS
	matches, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, nil
	}

	fronts := make([]frontEndMapper, 0, len(matches))
	for _, match := range matches {
		front, err := p.parseMapperByResource(match)
		if err != nil {
			return nil, fmt.Errorf("failed to parse mapper %q: %w", match, err)
		}
		fronts = append(fronts, front)
	}
	return fronts, nil
}

// buildMappers resolves every mapper document's <include>/include
// references (within its own front end; markup and indent fragments
// don't cross-resolve into one another) and adapts each into the root
// Mapper type the rest of the package works with.
func (p *XMLMappersElementParser) buildMappers(mappers *Mappers, fronts []frontEndMapper) (*Mappers, error) {
	var markupDocs []*markup.Mapper
	var indentDocs []*indent.Mapper
	for _, f := range fronts {
		if f.markup != nil {
			markupDocs = append(markupDocs, f.markup)
		}
		if f.indent != nil {
			indentDocs = append(indentDocs, f.indent)
		}
	}
	if len(markupDocs) > 0 {
		if err := markup.ResolveAll(markupDocs); err != nil {
			return nil, err
		}
	}
	if len(indentDocs) > 0 {
		if err := indent.ResolveAll(indentDocs); err != nil {
			return nil, err
		}
	}

	for _, f := range fronts {
		mapper, err := adaptMapper(f)
		if err != nil {
			return nil, err
		}
		if err := mappers.setMapper(mapper.namespace, mapper); err != nil {
			return nil, err
		}
	}
	return mappers, nil
}

// adaptMapper converts one front end's parsed document into the root
// Mapper/xmlSQLStatement types the rest of the package operates on.
func adaptMapper(f frontEndMapper) (*Mapper, error) {
	mapper := &Mapper{statements: make(map[string]*xmlSQLStatement)}

	switch {
	case f.markup != nil:
		mapper.namespace = f.markup.Namespace
		mapper.sqlNodes = f.markup.Fragments
		for k, v := range f.markup.Attrs {
			mapper.setAttribute(k, v)
		}
		for id, st := range f.markup.Statements {
			mapper.statements[id] = &xmlSQLStatement{
				mapper: mapper,
				id:     id,
				action: sql.Action(st.Action),
				Node:   st.Node,
				attrs:  st.Attrs,
			}
		}
	case f.indent != nil:
		mapper.namespace = f.indent.Namespace
		mapper.sqlNodes = f.indent.Fragments
		for k, v := range f.indent.Attrs {
			mapper.setAttribute(k, v)
		}
		for id, st := range f.indent.Statements {
			mapper.statements[id] = &xmlSQLStatement{
				mapper: mapper,
				id:     id,
				action: sql.Action(st.Action),
				Node:   st.Node,
				attrs:  st.Attrs,
			}
		}
	default:
		return nil, errors.New("mapper: neither front end produced a document")
	}

	if mapper.namespace == "" {
		return nil, &nodeAttributeRequiredError{nodeName: "mapper", attrName: "namespace"}
	}
	return mapper, nil
}

// reencodeSubtree re-serializes the element tree rooted at start (whose
// opening tag has already been consumed from decoder) into a standalone
// XML document, so an inline <mapper> embedded in the main
// configuration file can be parsed the same way an external mapper file
// is: as a complete document handed to package markup.
func reencodeSubtree(decoder *xml.Decoder, start xml.StartElement) (io.Reader, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	if err := enc.EncodeToken(start); err != nil {
		return nil, err
	}
	depth := 1
	for depth > 0 {
		tok, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
		if err := enc.EncodeToken(xml.CopyToken(tok)); err != nil {
			return nil, err
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return &buf, nil
}

// parseCharData reads character data from an XML decoder until it encounters the specified end element.
// It returns the character data as a string or an error if one occurs.
func parseCharData(decoder *xml.Decoder, endElementName string) (string, error) {
	var charData string
	for {
		token, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return "", err
		}
		switch token := token.(type) {
		case xml.CharData:
			charData = string(token)
		case xml.EndElement:
			if token.Name.Local == endElementName {
				return charData, nil
			}
		}
	}
	return "", &nodeUnclosedError{nodeName: endElementName}
}

// parseString reads character data from an XML decoder for the specified key
// and retrieves the corresponding value from the provided EnvValueProvider.
func parseString(key string, decoder *xml.Decoder, provider EnvValueProvider) (string, error) {
	value, err := parseCharData(decoder, key)
	if err != nil {
		return "", err
	}
	return provider.Get(value)
}

// parseInt reads character data from an XML decoder for the specified key,
// retrieves the corresponding value from the provided EnvValueProvider,
// and converts it to an integer.
func parseInt(key string, decoder *xml.Decoder, provider EnvValueProvider) (int, error) {
	value, err := parseCharData(decoder, key)
	if err != nil {
		return 0, err
	}
	str, err := provider.Get(value)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(str)
}
