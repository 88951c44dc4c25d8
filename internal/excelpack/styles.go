package excelpack

import (
	"strings"

	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/boardpack/internal/config"
)

// tealeg wants ARGB colour strings; brand config carries bare RGB hex.
func argb(hex string) string {
	return "FF" + strings.TrimPrefix(strings.ToUpper(hex), "#")
}

func headerStyle(brand config.BrandConfig) *xlsx.Style {
	s := xlsx.NewStyle()
	s.Fill = *xlsx.NewFill("solid", argb(brand.Primary), "FF000000")
	s.ApplyFill = true
	font := xlsx.NewFont(10, "Calibri")
	font.Bold = true
	font.Color = "FFFFFFFF"
	s.Font = *font
	s.ApplyFont = true
	s.Alignment = xlsx.Alignment{Horizontal: "center", Vertical: "center"}
	s.ApplyAlignment = true
	s.Border = *xlsx.NewBorder("thin", "thin", "thin", "thin")
	s.ApplyBorder = true
	return s
}

func sectionStyle(brand config.BrandConfig) *xlsx.Style {
	return headerStyle(brand)
}

func subHeaderStyle(brand config.BrandConfig) *xlsx.Style {
	s := xlsx.NewStyle()
	s.Fill = *xlsx.NewFill("solid", argb(brand.Light), "FF000000")
	s.ApplyFill = true
	font := xlsx.NewFont(9, "Calibri")
	font.Bold = true
	font.Color = "FF333333"
	s.Font = *font
	s.ApplyFont = true
	s.Alignment = xlsx.Alignment{Horizontal: "center", Vertical: "center"}
	s.ApplyAlignment = true
	s.Border = *xlsx.NewBorder("thin", "thin", "thin", "thin")
	s.ApplyBorder = true
	return s
}

func bodyStyle() *xlsx.Style {
	s := xlsx.NewStyle()
	s.Font = *xlsx.NewFont(9, "Calibri")
	s.ApplyFont = true
	s.Border = *xlsx.NewBorder("thin", "thin", "thin", "thin")
	s.ApplyBorder = true
	return s
}

func titleStyle(brand config.BrandConfig) *xlsx.Style {
	s := headerStyle(brand)
	font := xlsx.NewFont(14, "Calibri")
	font.Bold = true
	font.Color = "FFFFFFFF"
	s.Font = *font
	return s
}

// ragStyle colours a status cell Green/Amber/Red from the brand palette.
func ragStyle(brand config.BrandConfig, status string) *xlsx.Style {
	colour := brand.Green
	switch status {
	case "Amber":
		colour = brand.Amber
	case "Red":
		colour = brand.Red
	}
	s := xlsx.NewStyle()
	s.Fill = *xlsx.NewFill("solid", argb(colour), "FF000000")
	s.ApplyFill = true
	font := xlsx.NewFont(9, "Calibri")
	font.Bold = true
	font.Color = "FFFFFFFF"
	s.Font = *font
	s.ApplyFont = true
	s.Alignment = xlsx.Alignment{Horizontal: "center", Vertical: "center"}
	s.ApplyAlignment = true
	s.Border = *xlsx.NewBorder("thin", "thin", "thin", "thin")
	s.ApplyBorder = true
	return s
}
