// Package importer provides CSV and Excel import of production orders.
// It supports automatic delimiter detection, flexible column mapping with
// Spanish and English headers, and decimal commas.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/megastock/rollplan/internal/model"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Orders   []*model.Order
	Errors   []string
	Warnings []string
}

// Column identifies a semantic column of an order sheet.
type Column int

const (
	ColOrder Column = iota
	ColOrderDate
	ColFlute
	ColCustomer
	ColCustomerOrder
	ColCode
	ColDescription
	ColLength
	ColWidth
	ColHeight
	ColQuantity
	ColCavity
	ColDueDate
	ColDieNumber
	ColInnerSupplier
	ColInnerWidth
	ColInnerGrammage
	ColInnerType
	ColMediumSupplier
	ColMediumWidth
	ColMediumGrammage
	ColMediumType
	ColOuterSupplier
	ColOuterWidth
	ColOuterGrammage
	ColOuterType

	numColumns
)

// ColumnMapping maps every column role to its index in the data, -1 when absent.
type ColumnMapping [numColumns]int

// Index returns the position of c, or -1.
func (m ColumnMapping) Index(c Column) int {
	return m[c]
}

func emptyMapping() ColumnMapping {
	var m ColumnMapping
	for i := range m {
		m[i] = -1
	}
	return m
}

// positionalMapping follows the plant's order export layout.
func positionalMapping() ColumnMapping {
	m := emptyMapping()
	m[ColOrder] = 0
	m[ColOrderDate] = 1
	m[ColFlute] = 2
	m[ColCustomer] = 3
	m[ColCustomerOrder] = 4
	m[ColCode] = 5
	m[ColDescription] = 6
	m[ColLength] = 7
	m[ColWidth] = 8
	m[ColQuantity] = 9
	m[ColCavity] = 10
	m[ColDueDate] = 11
	for i := 0; i < 12; i++ {
		m[ColInnerSupplier+Column(i)] = 16 + i
	}
	m[ColDieNumber] = 33
	return m
}

// headerAliases maps columns to their accepted header names (normalized).
var headerAliases = []struct {
	col     Column
	aliases []string
}{
	{ColOrder, []string{"orden", "orden produccion", "orden de produccion", "op", "order", "order id", "order number", "id"}},
	{ColOrderDate, []string{"fecha pedido cliente", "fecha pedido", "order date"}},
	{ColFlute, []string{"flauta", "flute"}},
	{ColCustomer, []string{"cliente", "customer", "client"}},
	{ColCustomerOrder, []string{"pedido", "customer order", "po"}},
	{ColCode, []string{"codigo", "code", "sku"}},
	{ColDescription, []string{"descripcion", "description", "desc"}},
	{ColLength, []string{"largo", "length", "l"}},
	{ColWidth, []string{"ancho", "width", "w"}},
	{ColHeight, []string{"alto", "height", "h"}},
	{ColQuantity, []string{"cantidad", "quantity", "qty", "cant"}},
	{ColCavity, []string{"cavidad", "cavity", "cavities"}},
	{ColDueDate, []string{"fecha entrega cliente vtas", "fecha entrega cliente", "fecha entrega", "due date", "delivery date"}},
	{ColDieNumber, []string{"numero troquel", "troquel", "die", "die number"}},
	{ColInnerSupplier, []string{"liner interno proveedor", "inner liner supplier"}},
	{ColInnerWidth, []string{"liner interno ancho", "inner liner width"}},
	{ColInnerGrammage, []string{"liner interno gm", "liner interno gramaje", "inner liner grammage"}},
	{ColInnerType, []string{"liner interno tipo", "inner liner type"}},
	{ColMediumSupplier, []string{"medium proveedor", "medium supplier"}},
	{ColMediumWidth, []string{"medium ancho", "medium width"}},
	{ColMediumGrammage, []string{"medium gm", "medium gramaje", "medium grammage"}},
	{ColMediumType, []string{"medium tipo", "medium type"}},
	{ColOuterSupplier, []string{"liner externo proveedor", "outer liner supplier"}},
	{ColOuterWidth, []string{"liner externo ancho", "outer liner width"}},
	{ColOuterGrammage, []string{"liner externo gm", "liner externo gramaje", "outer liner grammage"}},
	{ColOuterType, []string{"liner externo tipo", "outer liner type"}},
}

var accentReplacer = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ñ", "n", "ü", "u",
	"_", " ", ".", " ",
)

// normalizeHeader lower-cases a header cell, strips accents and collapses spaces.
func normalizeHeader(s string) string {
	s = accentReplacer.Replace(strings.ToLower(strings.TrimSpace(s)))
	return strings.Join(strings.Fields(s), " ")
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// Returns the mapping and true if a header was detected, or the positional
// mapping of the plant export and false if no header was found.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := emptyMapping()
	isHeader := false
	for i, cell := range row {
		normalized := normalizeHeader(cell)
		if normalized == "" {
			continue
		}
		for _, h := range headerAliases {
			for _, alias := range h.aliases {
				if normalized == alias {
					isHeader = true
					if mapping[h.col] == -1 {
						mapping[h.col] = i
					}
				}
			}
		}
	}

	if !isHeader {
		return positionalMapping(), false
	}
	return mapping, true
}

// getCell safely retrieves a cell value from a row by column index.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// ParseNumber parses a number written with either a decimal point or a
// decimal comma. When both appear the last one is the decimal separator.
func ParseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}
	return strconv.ParseFloat(s, 64)
}

var dateLayouts = []string{"02/01/2006", "2006-01-02", "02-01-2006", "01-02-06", "2006-01-02 15:04:05"}

// parseDate accepts the date layouts found in plant exports.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// rowParser turns rows into orders using a mapping and the flute catalog.
type rowParser struct {
	mapping ColumnMapping
	catalog *model.Catalog
}

func (p rowParser) cell(row []string, c Column) string {
	return getCell(row, p.mapping.Index(c))
}

// number parses an optional numeric column; empty cells are zero.
func (p rowParser) number(row []string, c Column) (float64, error) {
	s := p.cell(row, c)
	if s == "" {
		return 0, nil
	}
	return ParseNumber(s)
}

func (p rowParser) layer(row []string, first Column) layerResult {
	var res layerResult
	res.Layer.Supplier = p.cell(row, first)
	res.Layer.Type = p.cell(row, first+3)
	var err error
	if res.Layer.Width, err = p.number(row, first+1); err != nil {
		res.Invalid = p.cell(row, first+1)
	}
	if res.Layer.Grammage, err = p.number(row, first+2); err != nil {
		res.Invalid = p.cell(row, first+2)
	}
	return res
}

// layerResult is a parsed paper layer and the first invalid cell, if any.
type layerResult struct {
	Layer   model.PaperLayer
	Invalid string
}

// parseRow extracts an order from a row. It returns the order, an error
// message and warning messages.
func (p rowParser) parseRow(row []string, rowLabel string) (*model.Order, string, []string) {
	var warnings []string

	id := p.cell(row, ColOrder)
	if id == "" {
		return nil, fmt.Sprintf("%s: Missing order reference", rowLabel), nil
	}

	dims := make(map[Column]float64, 3)
	for _, c := range []Column{ColLength, ColWidth, ColHeight} {
		s := p.cell(row, c)
		if s == "" {
			if c == ColHeight {
				continue
			}
			return nil, fmt.Sprintf("%s: Missing %s value", rowLabel, columnName(c)), nil
		}
		v, err := ParseNumber(s)
		if err != nil {
			return nil, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, columnName(c), s), nil
		}
		dims[c] = v
	}
	if dims[ColLength] <= 0 || dims[ColWidth] <= 0 || dims[ColHeight] < 0 {
		return nil, fmt.Sprintf("%s: Length and width must be positive", rowLabel), nil
	}

	qtyStr := p.cell(row, ColQuantity)
	if qtyStr == "" {
		return nil, fmt.Sprintf("%s: Missing quantity value", rowLabel), nil
	}
	qtyF, err := ParseNumber(qtyStr)
	if err != nil {
		return nil, fmt.Sprintf("%s: Invalid quantity '%s'", rowLabel, qtyStr), nil
	}
	qty := int(qtyF)
	if qty <= 0 {
		return nil, fmt.Sprintf("%s: Quantity must be positive", rowLabel), nil
	}

	cavity := 1
	if s := p.cell(row, ColCavity); s != "" {
		v, err := ParseNumber(s)
		if err != nil || int(v) <= 0 {
			warnings = append(warnings, fmt.Sprintf("%s: Invalid cavity '%s', using 1", rowLabel, s))
		} else {
			cavity = int(v)
		}
	} else {
		warnings = append(warnings, fmt.Sprintf("%s: Missing cavity, using 1", rowLabel))
	}

	o := model.NewOrder(id, dims[ColLength], dims[ColWidth], dims[ColHeight], qty, cavity)
	o.Customer = p.cell(row, ColCustomer)
	o.CustomerOrder = p.cell(row, ColCustomerOrder)
	o.Code = p.cell(row, ColCode)
	o.Description = p.cell(row, ColDescription)
	o.DieNumber = p.cell(row, ColDieNumber)
	o.DieCut = o.DieNumber != ""

	for _, d := range []struct {
		col    Column
		target *time.Time
	}{{ColOrderDate, &o.OrderDate}, {ColDueDate, &o.DueDate}} {
		s := p.cell(row, d.col)
		if s == "" {
			continue
		}
		if t, ok := parseDate(s); ok {
			*d.target = t
		} else {
			warnings = append(warnings, fmt.Sprintf("%s: Unrecognized date '%s' ignored", rowLabel, s))
		}
	}

	if code := p.cell(row, ColFlute); code != "" {
		o.FluteCode = model.NormalizeFluteCode(code)
		if p.catalog != nil {
			if f, ok := p.catalog.FindFlute(code); ok {
				o.ApplyFlute(f)
			} else {
				warnings = append(warnings, fmt.Sprintf("%s: Unknown flute '%s', no compensation applied", rowLabel, code))
			}
		}
	}

	layers := []struct {
		first  Column
		target *model.PaperLayer
	}{
		{ColInnerSupplier, &o.InnerLiner},
		{ColMediumSupplier, &o.Medium},
		{ColOuterSupplier, &o.OuterLiner},
	}
	for _, l := range layers {
		res := p.layer(row, l.first)
		*l.target = res.Layer
		if res.Invalid != "" {
			warnings = append(warnings, fmt.Sprintf("%s: Invalid paper value '%s' ignored", rowLabel, res.Invalid))
		}
	}

	return o, "", warnings
}

func columnName(c Column) string {
	switch c {
	case ColOrder:
		return "order"
	case ColLength:
		return "length"
	case ColWidth:
		return "width"
	case ColHeight:
		return "height"
	case ColQuantity:
		return "quantity"
	default:
		return fmt.Sprintf("column %d", int(c))
	}
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// readCSV parses raw CSV content with the given delimiter.
func readCSV(r io.Reader, delimiter rune) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

// ImportCSV imports orders from a CSV file. It strips a UTF-8 BOM, detects
// the delimiter and maps columns by header names. Flute offsets are applied
// from cat when it is not nil.
func ImportCSV(path string, cat *model.Catalog) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	records, err := readCSV(bytes.NewReader(data), delimiter)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", result.Warnings, cat)
}

// ImportCSVFromReader imports orders from a CSV reader with a specific delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune, cat *model.Catalog) ImportResult {
	result := ImportResult{}

	records, err := readCSV(reader, delimiter)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", nil, cat)
}

// ImportExcel imports orders from the first sheet of an Excel file.
func ImportExcel(path string, cat *model.Catalog) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row", nil, cat)
}

// ImportFile picks the CSV or Excel importer from the file extension.
func ImportFile(path string, cat *model.Catalog) ImportResult {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xlsm") {
		return ImportExcel(path, cat)
	}
	return ImportCSV(path, cat)
}

// importFromRows is the shared import logic for both CSV and Excel data.
// Later rows with an already seen order reference replace the earlier one.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string, cat *model.Catalog) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		missing := []string{}
		for _, c := range []Column{ColOrder, ColLength, ColWidth, ColQuantity} {
			if mapping.Index(c) == -1 {
				missing = append(missing, columnName(c))
			}
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	}

	parser := rowParser{mapping: mapping, catalog: cat}
	index := make(map[string]int)

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		lineNum := i + 1

		if isEmptyRow(row) {
			continue
		}
		// Unrecognized title rows of the plant export carry no numeric quantity.
		if !hasHeader {
			if _, err := ParseNumber(getCell(row, mapping.Index(ColQuantity))); err != nil && i < 2 {
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s %d: Title row skipped", rowPrefix, lineNum))
				continue
			}
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, lineNum)
		order, errMsg, warnings := parser.parseRow(row, rowLabel)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		result.Warnings = append(result.Warnings, warnings...)

		if pos, dup := index[order.ID]; dup {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: Order %s repeated, keeping the later row", rowLabel, order.ID))
			result.Orders[pos] = order
			continue
		}
		index[order.ID] = len(result.Orders)
		result.Orders = append(result.Orders, order)
	}

	return result
}
