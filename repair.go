package sheetstore

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// RegistryState 表格注册表的完整性状态
type RegistryState int

const (
	StateClean RegistryState = iota
	StateCorrupted
)

func (s RegistryState) String() string {
	if s == StateClean {
		return "clean"
	}
	return "corrupted"
}

// GhostReason 注册项被判定为幽灵定义的原因
type GhostReason string

const (
	GhostUnreachable   GhostReason = "unreachable"    // 注册项没有可达的表格对象
	GhostSheetMissing  GhostReason = "sheet_missing"  // 所在工作表已不存在
	GhostHeaderCleared GhostReason = "header_cleared" // 表头已被清空
	GhostDuplicateName GhostReason = "duplicate_name" // 与之前的表格重名
	GhostOverlap       GhostReason = "overlap"        // 区域与另一个表格重叠
)

// Ghost 一条幽灵表格定义
type Ghost struct {
	Name     string
	Sheet    string
	Range    CellRange
	Reason   GhostReason
	Conflict string // 重名或重叠时对应的有效表格

	entry *registryEntry
}

// RepairReport 一次修复的结果
type RepairReport struct {
	Before         RegistryState
	After          RegistryState
	Removed        []Ghost
	NativeRemovals int // 通过 excelize DeleteTable 移除的数量
	ClearedCells   int
}

// Detect 扫描注册表，返回全部幽灵定义。只读。
func (w *Workbook) Detect() []Ghost {
	ghosts, _ := w.classify()
	return ghosts
}

// State 当前注册表状态
func (w *Workbook) State() RegistryState {
	if len(w.Detect()) > 0 {
		return StateCorrupted
	}
	return StateClean
}

// classify 按注册顺序逐项判定，先出现的有效表格优先
func (w *Workbook) classify() (ghosts []Ghost, live []*registryEntry) {
	for _, e := range w.reg.entries {
		g := Ghost{Name: e.name, entry: e}
		if e.desc != nil {
			g.Sheet = e.desc.Sheet
			g.Range = e.desc.Range
		}

		switch {
		case e.desc == nil:
			g.Reason = GhostUnreachable
		case !w.sheetExists(e.desc.Sheet):
			g.Reason = GhostSheetMissing
		case w.headerCleared(e.desc):
			g.Reason = GhostHeaderCleared
		default:
			if other := firstNamed(live, e.desc.Name); other != nil {
				g.Reason = GhostDuplicateName
				g.Conflict = other.desc.Name
			} else if other := firstOverlapping(live, e.desc); other != nil {
				g.Reason = GhostOverlap
				g.Conflict = other.desc.Name
			} else {
				live = append(live, e)
				continue
			}
		}
		ghosts = append(ghosts, g)
	}
	return ghosts, live
}

// Repair 移除全部幽灵定义。优先使用 excelize 的 DeleteTable；不可用或失败时
// 清空该区域中不属于有效表格的单元格，再从注册表中直接移除该项。
// 对已经干净的注册表不做任何修改。
func (w *Workbook) Repair() (RepairReport, error) {
	ghosts, live := w.classify()
	report := RepairReport{Before: StateClean, After: StateClean}
	if len(ghosts) == 0 {
		return report, nil
	}
	report.Before = StateCorrupted

	for _, g := range ghosts {
		native := false
		if g.entry.native && w.nativeUnique(g.Name) {
			if err := w.file.DeleteTable(g.Name); err == nil {
				native = true
				report.NativeRemovals++
			} else {
				w.logger.Warn("DeleteTable 失败，改为清空区域", zap.String("table", g.Name), zap.Error(err))
			}
		}
		if !native && g.entry.desc != nil && g.Reason != GhostSheetMissing {
			n, err := w.clearUnclaimed(g.entry.desc, live)
			if err != nil {
				return report, newTableError(g.Name, "repair", fmt.Errorf("%w: %v", ErrRegistryCorruption, err))
			}
			report.ClearedCells += n
		}
		w.reg.remove(g.entry)
		report.Removed = append(report.Removed, g)

		w.logger.Warn("移除幽灵表格定义",
			zap.String("table", g.Name),
			zap.String("sheet", g.Sheet),
			zap.String("range", g.Range.String()),
			zap.String("reason", string(g.Reason)),
			zap.String("conflict", g.Conflict),
			zap.Bool("native", native))
	}

	if rest := w.Detect(); len(rest) > 0 {
		report.After = StateCorrupted
		return report, newTableError(rest[0].Name, "repair",
			fmt.Errorf("%w: 修复后仍有 %d 个幽灵定义", ErrRegistryCorruption, len(rest)))
	}
	w.logger.Info("表格元数据修复完成", zap.Int("removed", len(report.Removed)), zap.Int("native", report.NativeRemovals), zap.Int("cleared_cells", report.ClearedCells))
	return report, nil
}

// clearUnclaimed 清空 desc 区域内不属于有效表格的非空单元格
func (w *Workbook) clearUnclaimed(desc *TableDescriptor, live []*registryEntry) (int, error) {
	cleared := 0
	rng := desc.Range
	for r := rng.StartRow; r <= rng.EndRow; r++ {
		for c := rng.StartCol; c <= rng.EndCol; c++ {
			if claimedBy(live, desc.Sheet, c, r) {
				continue
			}
			addr := cellName(c, r)
			v, err := w.file.GetCellValue(desc.Sheet, addr)
			if err != nil {
				return cleared, err
			}
			if v == "" {
				continue
			}
			if err := w.file.SetCellValue(desc.Sheet, addr, nil); err != nil {
				return cleared, err
			}
			cleared++
		}
	}
	return cleared, nil
}

// nativeUnique 文件中只有一个同名表格定义时 DeleteTable 才能准确命中
func (w *Workbook) nativeUnique(name string) bool {
	n := 0
	for _, e := range w.reg.entries {
		if e.native && foldName(e.name) == foldName(name) {
			n++
		}
	}
	return n == 1
}

func (w *Workbook) sheetExists(name string) bool {
	_, ok := w.resolveSheet(name)
	return ok
}

func (w *Workbook) headerCleared(desc *TableDescriptor) bool {
	rng := desc.Range
	for c := rng.StartCol; c <= rng.EndCol; c++ {
		v, err := w.file.GetCellValue(desc.Sheet, cellName(c, rng.StartRow))
		if err == nil && strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func firstNamed(entries []*registryEntry, name string) *registryEntry {
	key := foldName(name)
	for _, e := range entries {
		if foldName(e.desc.Name) == key {
			return e
		}
	}
	return nil
}

func firstOverlapping(entries []*registryEntry, desc *TableDescriptor) *registryEntry {
	for _, e := range entries {
		if strings.EqualFold(e.desc.Sheet, desc.Sheet) && e.desc.Range.withPlaceholder().Overlaps(desc.Range.withPlaceholder()) {
			return e
		}
	}
	return nil
}

func claimedBy(entries []*registryEntry, sheet string, col, row int) bool {
	for _, e := range entries {
		if strings.EqualFold(e.desc.Sheet, sheet) && e.desc.Range.withPlaceholder().Contains(col, row) {
			return true
		}
	}
	return false
}
