package sheetstore

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// TableDescriptor 表格的权威描述。Range 从表头行开始，到最后一个数据行结束；
// 空表的 EndRow 等于 StartRow。
type TableDescriptor struct {
	Name      string
	Sheet     string
	Range     CellRange
	Columns   []string
	StyleName string
}

// registryEntry 注册表中的一项。desc 为 nil 表示该项指向的表格已不可达
type registryEntry struct {
	name   string
	desc   *TableDescriptor
	native bool // 对应工作簿文件中仍存在的表格定义
}

// registry 工作簿内全部表格的注册表，由本包维护，excelize 只作为单元格读写后端。
// 顺序即查找顺序：加载时按工作表顺序与表格顺序，之后按创建顺序追加。
type registry struct {
	entries []*registryEntry
}

func loadRegistry(f *excelize.File) (*registry, error) {
	reg := &registry{}
	for _, sheet := range f.GetSheetList() {
		tables, err := f.GetTables(sheet)
		if err != nil {
			return nil, fmt.Errorf("%w: 读取工作表 %s 的表格定义: %v", ErrCorruptFormat, sheet, err)
		}
		if len(tables) == 0 {
			continue
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("%w: 读取工作表 %s: %v", ErrCorruptFormat, sheet, err)
		}
		for _, t := range tables {
			entry := &registryEntry{name: t.Name, native: true}
			if rng, err := ParseRange(t.Range); err == nil {
				desc := &TableDescriptor{
					Name:      t.Name,
					Sheet:     sheet,
					Range:     rng,
					StyleName: t.StyleName,
				}
				for c := rng.StartCol; c <= rng.EndCol; c++ {
					desc.Columns = append(desc.Columns, strings.TrimSpace(valueAt(rows, c, rng.StartRow)))
				}
				// 文件中的表格至少有一个（可能为空的）数据行，去掉末尾空行
				for desc.Range.EndRow > desc.Range.StartRow && rowBlank(rows, desc.Range, desc.Range.EndRow) {
					desc.Range.EndRow--
				}
				entry.desc = desc
			}
			reg.entries = append(reg.entries, entry)
		}
	}
	return reg, nil
}

// lookup 返回第一个名称匹配（大小写不敏感）且可达的注册项
func (r *registry) lookup(name string) *registryEntry {
	key := foldName(name)
	for _, e := range r.entries {
		if e.desc != nil && foldName(e.name) == key {
			return e
		}
	}
	return nil
}

func (r *registry) add(desc *TableDescriptor) *registryEntry {
	e := &registryEntry{name: desc.Name, desc: desc}
	r.entries = append(r.entries, e)
	return e
}

func (r *registry) remove(target *registryEntry) {
	for i, e := range r.entries {
		if e == target {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}

func (r *registry) contains(desc *TableDescriptor) bool {
	for _, e := range r.entries {
		if e.desc == desc {
			return true
		}
	}
	return false
}

func (r *registry) sheetHasTables(sheet string) bool {
	for _, e := range r.entries {
		if e.desc != nil && strings.EqualFold(e.desc.Sheet, sheet) {
			return true
		}
	}
	return false
}

// claimants 返回同一工作表上区域与 rng 重叠的其他注册项
func (r *registry) claimants(sheet string, rng CellRange, self *TableDescriptor) []*registryEntry {
	var out []*registryEntry
	for _, e := range r.entries {
		if e.desc == nil || e.desc == self || !strings.EqualFold(e.desc.Sheet, sheet) {
			continue
		}
		if e.desc.Range.withPlaceholder().Overlaps(rng) {
			out = append(out, e)
		}
	}
	return out
}

// flush 用注册表重写工作簿文件中的表格定义：先删除全部已有定义，再逐个添加
func (r *registry) flush(f *excelize.File) error {
	var existing []string
	for _, sheet := range f.GetSheetList() {
		tables, err := f.GetTables(sheet)
		if err != nil {
			return fmt.Errorf("%w: 读取工作表 %s 的表格定义: %v", ErrRegistryCorruption, sheet, err)
		}
		for _, t := range tables {
			existing = append(existing, t.Name)
		}
	}
	for _, name := range existing {
		if err := f.DeleteTable(name); err != nil {
			return fmt.Errorf("%w: 删除表格定义 %s: %v", ErrRegistryCorruption, name, err)
		}
	}

	for _, e := range r.entries {
		if e.desc == nil {
			continue
		}
		d := e.desc
		err := f.AddTable(d.Sheet, &excelize.Table{
			Range:     d.Range.withPlaceholder().String(),
			Name:      d.Name,
			StyleName: d.StyleName,
		})
		if err != nil {
			return fmt.Errorf("%w: 写入表格定义 %s: %v", ErrRegistryCorruption, d.Name, err)
		}
		e.native = true
	}
	return nil
}

func valueAt(rows [][]string, col, row int) string {
	if row < 1 || row > len(rows) {
		return ""
	}
	r := rows[row-1]
	if col < 1 || col > len(r) {
		return ""
	}
	return r[col-1]
}

func rowBlank(rows [][]string, rng CellRange, row int) bool {
	for c := rng.StartCol; c <= rng.EndCol; c++ {
		if strings.TrimSpace(valueAt(rows, c, row)) != "" {
			return false
		}
	}
	return true
}
