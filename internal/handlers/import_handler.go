package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"catalog-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// ImportFormat represents the file format for import
type ImportFormat string

const (
	ImportFormatCSV  ImportFormat = "csv"
	ImportFormatXLSX ImportFormat = "xlsx"

	catalogSheet = "Catalog"
)

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"`
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity     string                 `json:"entity"`
	Version    string                 `json:"version"`
	Columns    []ImportTemplateColumn `json:"columns"`
	SampleData []map[string]string    `json:"sampleData,omitempty"`
}

// ImportRowError represents an error for a specific row
type ImportRowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportResult represents the result of an import operation
type ImportResult struct {
	Success      bool             `json:"success"`
	TotalRows    int              `json:"totalRows"`
	SuccessCount int              `json:"successCount"`
	FailedCount  int              `json:"failedCount"`
	Created      map[string]int   `json:"created"`
	Errors       []ImportRowError `json:"errors,omitempty"`
}

type ImportHandler struct {
	service *services.CatalogService
	logger  *logrus.Entry
}

func NewImportHandler(service *services.CatalogService, logger *logrus.Logger) *ImportHandler {
	return &ImportHandler{
		service: service,
		logger:  logger.WithField("component", "handlers.import"),
	}
}

// CatalogImportTemplate returns the template definition for the catalog
func CatalogImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "catalog",
		Version: "1.0",
		Columns: []ImportTemplateColumn{
			{Name: "category", Description: "Category name, created when missing", Required: true, Type: "string", Example: "Beverages"},
			{Name: "brand", Description: "Brand name within the category", Required: false, Type: "string", Example: "Acme"},
			{Name: "productLine", Description: "Product line name within the brand (needs a brand)", Required: false, Type: "string", Example: "Sparkling"},
			{Name: "isActive", Description: "Active flag for nodes created by this row (true/false)", Required: false, Type: "boolean", Example: "true"},
		},
		SampleData: []map[string]string{
			{"category": "Beverages", "brand": "Acme", "productLine": "Sparkling", "isActive": "true"},
			{"category": "Beverages", "brand": "Acme", "productLine": "Still", "isActive": "true"},
			{"category": "Snacks", "brand": "", "productLine": "", "isActive": "false"},
		},
	}
}

// GetImportTemplate returns the import template definition or file
// GET /api/admin/delivery/catalog/import/template
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	template := CatalogImportTemplate()

	switch c.DefaultQuery("format", "json") {
	case "csv":
		h.generateCSVTemplate(c, template)
	case "xlsx":
		h.generateXLSXTemplate(c, template)
	default:
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"template": template,
		})
	}
}

func (h *ImportHandler) generateCSVTemplate(c *gin.Context, template ImportTemplate) {
	rows := make([][]string, 0, len(template.SampleData))
	for _, sample := range template.SampleData {
		row := make([]string, len(template.Columns))
		for i, col := range template.Columns {
			row[i] = sample[col.Name]
		}
		rows = append(rows, row)
	}
	writeCSV(c, "catalog_import_template.csv", columnNames(template), rows)
}

func (h *ImportHandler) generateXLSXTemplate(c *gin.Context, template ImportTemplate) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", catalogSheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
	})

	for i, col := range template.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		headerText := col.Name
		style := headerStyle
		if col.Required {
			headerText = col.Name + " *"
			style = requiredStyle
		}
		f.SetCellValue(catalogSheet, cell, headerText)
		f.SetCellStyle(catalogSheet, cell, cell, style)

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(catalogSheet, colName, colName, 20)
	}

	for rowIdx, sample := range template.SampleData {
		for colIdx, col := range template.Columns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(catalogSheet, cell, sample[col.Name])
		}
	}

	f.NewSheet("Instructions")
	f.SetCellValue("Instructions", "A1", "Catalog Import Instructions")
	f.SetCellValue("Instructions", "A3", "Column Definitions:")
	for i, col := range template.Columns {
		row := i + 4
		required := "Optional"
		if col.Required {
			required = "Required"
		}
		f.SetCellValue("Instructions", fmt.Sprintf("A%d", row), col.Name)
		f.SetCellValue("Instructions", fmt.Sprintf("B%d", row), col.Description)
		f.SetCellValue("Instructions", fmt.Sprintf("C%d", row), required)
		f.SetCellValue("Instructions", fmt.Sprintf("D%d", row), col.Type)
		f.SetCellValue("Instructions", fmt.Sprintf("E%d", row), col.Example)
	}
	f.SetColWidth("Instructions", "A", "A", 20)
	f.SetColWidth("Instructions", "B", "B", 50)
	f.SetColWidth("Instructions", "C", "E", 15)

	sheetIdx, _ := f.GetSheetIndex(catalogSheet)
	f.SetActiveSheet(sheetIdx)

	writeXLSX(c, f, "catalog_import_template.xlsx")
}

// ExportCatalog downloads the hierarchy, one row per leaf node
// GET /api/admin/delivery/catalog/export
func (h *ImportHandler) ExportCatalog(c *gin.Context) {
	rows, err := h.service.ExportRows(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	headers := columnNames(CatalogImportTemplate())
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{r.Category, r.Brand, r.ProductLine, strconv.FormatBool(r.IsActive)})
	}

	if c.DefaultQuery("format", "xlsx") == "csv" {
		writeCSV(c, "catalog_export.csv", headers, records)
		return
	}

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", catalogSheet)

	sw, err := f.NewStreamWriter(catalogSheet)
	if err != nil {
		respondError(c, err)
		return
	}
	header := make([]interface{}, len(headers))
	for i, name := range headers {
		header[i] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		respondError(c, err)
		return
	}
	for i, record := range records {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := make([]interface{}, len(record))
		for j, v := range record {
			values[j] = v
		}
		if err := sw.SetRow(cell, values); err != nil {
			respondError(c, err)
			return
		}
	}
	if err := sw.Flush(); err != nil {
		respondError(c, err)
		return
	}

	writeXLSX(c, f, "catalog_export.xlsx")
}

// ImportCatalog creates missing catalog nodes from a CSV or Excel file
// POST /api/admin/delivery/catalog/import
func (h *ImportHandler) ImportCatalog(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "FILE_REQUIRED", "Please upload a CSV or Excel file", "file")
		return
	}
	defer file.Close()

	var format ImportFormat
	switch filename := strings.ToLower(header.Filename); {
	case strings.HasSuffix(filename, ".csv"):
		format = ImportFormatCSV
	case strings.HasSuffix(filename, ".xlsx"):
		format = ImportFormatXLSX
	default:
		errorJSON(c, http.StatusBadRequest, "INVALID_FORMAT", "Only CSV and XLSX files are supported", "file")
		return
	}

	var rows []map[string]string
	if format == ImportFormatCSV {
		rows, err = parseCSV(file)
	} else {
		rows, err = parseXLSX(file)
	}
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "PARSE_ERROR", err.Error(), "file")
		return
	}
	if len(rows) == 0 {
		errorJSON(c, http.StatusBadRequest, "EMPTY_FILE", "The file contains no data rows", "file")
		return
	}

	result := h.processImportRows(c, rows)
	h.logger.WithFields(logrus.Fields{
		"rows":      result.TotalRows,
		"succeeded": result.SuccessCount,
		"failed":    result.FailedCount,
	}).Info("Catalog import finished")

	c.JSON(http.StatusOK, result)
}

// processImportRows applies each row on its own; a failed row does not undo
// earlier ones
func (h *ImportHandler) processImportRows(c *gin.Context, rows []map[string]string) *ImportResult {
	result := &ImportResult{
		TotalRows: len(rows),
		Created:   map[string]int{},
		Errors:    make([]ImportRowError, 0),
	}

	for _, row := range rows {
		rowNum, _ := strconv.Atoi(row["_row"])

		if row["category"] == "" {
			result.Errors = append(result.Errors, ImportRowError{
				Row:     rowNum,
				Column:  "category",
				Code:    "REQUIRED_FIELD",
				Message: "Required field 'category' is empty",
			})
			continue
		}

		pathRow := services.CatalogPathRow{
			Category:    row["category"],
			Brand:       row["brand"],
			ProductLine: row["productline"],
		}
		if raw := row["isactive"]; raw != "" {
			active, err := strconv.ParseBool(raw)
			if err != nil {
				result.Errors = append(result.Errors, ImportRowError{
					Row:     rowNum,
					Column:  "isActive",
					Code:    "INVALID_VALUE",
					Message: fmt.Sprintf("isActive must be true or false, got %q", raw),
				})
				continue
			}
			pathRow.IsActive = &active
		}

		outcome, err := h.service.EnsurePath(c.Request.Context(), pathRow)
		if err != nil {
			result.Errors = append(result.Errors, importError(rowNum, err))
			continue
		}
		for _, level := range outcome.Created {
			result.Created[level]++
		}
		result.SuccessCount++
	}

	result.FailedCount = result.TotalRows - result.SuccessCount
	result.Success = result.SuccessCount > 0
	return result
}

func importError(row int, err error) ImportRowError {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return ImportRowError{Row: row, Column: verr.Field, Code: verr.Code, Message: verr.Message}
	}
	var cerr *services.ConflictError
	if errors.As(err, &cerr) {
		return ImportRowError{Row: row, Code: cerr.Code, Message: cerr.Message}
	}
	return ImportRowError{Row: row, Code: "IMPORT_FAILED", Message: "Failed to import row"}
}

func parseCSV(file io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	normalizeHeaders(headers)

	var rows []map[string]string
	lineNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", lineNum+1, err)
		}
		lineNum++
		rows = append(rows, toRow(headers, record, lineNum))
	}
	return rows, nil
}

func parseXLSX(file io.Reader) ([]map[string]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}
	sheetName := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, catalogSheet) {
			sheetName = name
			break
		}
	}

	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(excelRows) < 2 {
		return nil, fmt.Errorf("file must have a header row and at least one data row")
	}

	headers := excelRows[0]
	normalizeHeaders(headers)

	var rows []map[string]string
	for rowIdx, excelRow := range excelRows[1:] {
		rows = append(rows, toRow(headers, excelRow, rowIdx+2))
	}
	return rows, nil
}

// normalizeHeaders lowercases headers and drops the required marker
func normalizeHeaders(headers []string) {
	for i := range headers {
		headers[i] = strings.TrimSuffix(strings.TrimSpace(strings.ToLower(headers[i])), " *")
	}
}

func toRow(headers, values []string, rowNum int) map[string]string {
	row := make(map[string]string, len(headers)+1)
	for i, value := range values {
		if i < len(headers) {
			row[headers[i]] = strings.TrimSpace(value)
		}
	}
	row["_row"] = strconv.Itoa(rowNum)
	return row
}

func columnNames(template ImportTemplate) []string {
	names := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		names[i] = col.Name
	}
	return names
}

func writeCSV(c *gin.Context, filename string, headers []string, rows [][]string) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename="+filename)

	writer := csv.NewWriter(c.Writer)
	writer.Write(headers)
	writer.WriteAll(rows)
}

func writeXLSX(c *gin.Context, f *excelize.File, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+filename)
	f.Write(c.Writer)
}
