package parser

import "indecstat/internal/model"

// Block 按地区纵向堆叠的数据块
type Block struct {
	Anchor   model.EntityAnchor `json:"anchor"`
	StartRow int                `json:"startRow"` // 块标题行（无标题时为 0）
	EndRow   int                `json:"endRow"`   // 不含
	Titled   bool               `json:"titled"`
}

// Region 块对应的地区名称
func (b Block) Region() string {
	if b.Anchor.CanonicalName == "" {
		return model.RegionNacional
	}
	return b.Anchor.CanonicalName
}

// LocateBlocks 识别地区块标题行（名称列匹配且本行无数值）
// 未识别到任何标题时整表视为一个 "Nacional" 块
func (l *Locator) LocateBlocks(sheet model.Sheet, regions *Matcher, labelCol int) []Block {
	var blocks []Block
	for r := range sheet.Rows {
		label := sheet.At(r, labelCol)
		if label.Kind != model.TextCell {
			continue
		}
		p, ok := regions.Match(label.Text)
		if !ok || len(numericColumns(sheet, r, labelCol)) > 0 {
			continue
		}
		if n := len(blocks); n > 0 {
			blocks[n-1].EndRow = r
		}
		blocks = append(blocks, Block{Anchor: p.Anchor(r), StartRow: r, EndRow: len(sheet.Rows), Titled: true})
	}
	if len(blocks) == 0 {
		return []Block{{
			Anchor:   model.EntityAnchor{CanonicalName: model.RegionNacional, Code: GenerateCode(model.RegionNacional), Category: model.CategoryRegion},
			StartRow: 0,
			EndRow:   len(sheet.Rows),
		}}
	}
	return blocks
}
