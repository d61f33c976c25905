package sheetstore

import (
	"fmt"

	"go.uber.org/zap"
)

// FindTable 在所有工作表中大小写不敏感地查找表格，返回第一个匹配项。
// 不存在时返回 ErrTableNotFound。
func (w *Workbook) FindTable(name string) (*Table, error) {
	e := w.reg.lookup(name)
	if e == nil {
		w.logger.Debug("表格不存在", zap.String("table", name))
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return &Table{wb: w, desc: e.desc}, nil
}

// TableExists 表格是否存在（大小写不敏感）
func (w *Workbook) TableExists(name string) bool {
	return w.reg.lookup(name) != nil
}

// ListTableNames 返回全部表格名称。工作簿中没有任何表格时返回工作表名称，
// 部分生成方会把整张工作表当作一个隐式表格。
func (w *Workbook) ListTableNames() []string {
	var names []string
	for _, e := range w.reg.entries {
		if e.desc != nil {
			names = append(names, e.desc.Name)
		}
	}
	if len(names) == 0 {
		return w.file.GetSheetList()
	}
	return names
}

// Tables 返回全部可达的表格
func (w *Workbook) Tables() []*Table {
	var out []*Table
	for _, e := range w.reg.entries {
		if e.desc != nil {
			out = append(out, &Table{wb: w, desc: e.desc})
		}
	}
	return out
}
