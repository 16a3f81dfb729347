package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) ListBillings(c *gin.Context) {
	list, err := h.Service.ListBillings(c.Request.Context(), c.Query("status"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"billings": list})
}

func (h *Handler) MarkBillingPaid(c *gin.Context) {
	b, err := h.Service.MarkBillingPaid(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// ExportBillings writes the billing ledger as an xlsx workbook
func (h *Handler) ExportBillings(c *gin.Context) {
	list, err := h.Service.ListBillings(c.Request.Context(), c.Query("status"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	wb := excelize.NewFile()
	defer func() { _ = wb.Close() }()

	sheet := "Billing"
	if err := wb.SetSheetName("Sheet1", sheet); err != nil {
		h.respondError(c, err)
		return
	}

	headers := []string{"ID", "Mission", "Technician", "Amount", "Status", "Created", "Paid"}
	for i, title := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = wb.SetCellValue(sheet, cell, title)
	}

	var total float64
	for i, b := range list {
		row := i + 2
		_ = wb.SetCellValue(sheet, fmt.Sprintf("A%d", row), b.ID)
		_ = wb.SetCellValue(sheet, fmt.Sprintf("B%d", row), b.MissionID)
		_ = wb.SetCellValue(sheet, fmt.Sprintf("C%d", row), b.TechnicianID)
		_ = wb.SetCellValue(sheet, fmt.Sprintf("D%d", row), b.Amount)
		_ = wb.SetCellValue(sheet, fmt.Sprintf("E%d", row), string(b.Status))
		_ = wb.SetCellValue(sheet, fmt.Sprintf("F%d", row), b.CreatedAt.Format(time.RFC3339))
		if b.PaidAt != nil {
			_ = wb.SetCellValue(sheet, fmt.Sprintf("G%d", row), b.PaidAt.Format(time.RFC3339))
		}
		total += b.Amount
	}
	totalRow := len(list) + 2
	_ = wb.SetCellValue(sheet, fmt.Sprintf("C%d", totalRow), "Total")
	_ = wb.SetCellValue(sheet, fmt.Sprintf("D%d", totalRow), total)

	buf, err := wb.WriteToBuffer()
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=billing.xlsx")
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
