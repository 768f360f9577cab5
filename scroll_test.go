package main

import (
	"errors"
	"strings"
	"testing"
)

// scrollModel builds a model with pre-populated scroll state so tests don't
// need to trigger rendering. Three 5-line entries at lines 0, 6, 12.
func scrollModel(totalLines, viewportH int) model {
	m := model{
		width:              120,
		height:             viewportH,
		totalRenderedLines: totalLines,
		entries:            testEntries()[:3],
	}
	m.lineOffsets = []int{0, 6, 12}
	m.entryLines = []int{5, 5, 5}
	return m
}

// --- clampListScroll -------------------------------------------------------

func TestClampListScroll(t *testing.T) {
	t.Run("scroll past content is clamped to max", func(t *testing.T) {
		m := scrollModel(100, 40)
		m.scroll = 200
		m.clampListScroll()

		want := 100 - m.listViewHeight() // 100 - 37
		if m.scroll != want {
			t.Errorf("scroll = %d, want %d (max)", m.scroll, want)
		}
	})

	t.Run("scroll within range is unchanged", func(t *testing.T) {
		m := scrollModel(100, 40)
		m.scroll = 10
		m.clampListScroll()
		if m.scroll != 10 {
			t.Errorf("scroll = %d, want 10", m.scroll)
		}
	})

	t.Run("negative scroll clamped to 0", func(t *testing.T) {
		m := scrollModel(100, 40)
		m.scroll = -5
		m.clampListScroll()
		if m.scroll != 0 {
			t.Errorf("scroll = %d, want 0", m.scroll)
		}
	})

	t.Run("content shorter than viewport", func(t *testing.T) {
		m := scrollModel(20, 40)
		m.scroll = 5
		m.clampListScroll()
		if m.scroll != 0 {
			t.Errorf("scroll = %d, want 0", m.scroll)
		}
	})
}

// --- ensureCursorVisible --------------------------------------------------

func TestEnsureCursorVisible(t *testing.T) {
	t.Run("cursor above viewport scrolls up", func(t *testing.T) {
		m := scrollModel(20, 40)
		m.cursor = 0
		m.scroll = 10
		m.ensureCursorVisible()
		if m.scroll != 0 {
			t.Errorf("scroll = %d, want 0", m.scroll)
		}
	})

	t.Run("cursor below viewport scrolls down", func(t *testing.T) {
		m := scrollModel(20, 10) // listViewHeight = 7
		m.cursor = 2             // lines 12..16
		m.ensureCursorVisible()

		want := 16 - m.listViewHeight() + 1
		if m.scroll != want {
			t.Errorf("scroll = %d, want %d", m.scroll, want)
		}
	})

	t.Run("cursor already visible", func(t *testing.T) {
		m := scrollModel(20, 40)
		m.cursor = 1
		m.ensureCursorVisible()
		if m.scroll != 0 {
			t.Errorf("scroll = %d, want 0", m.scroll)
		}
	})

	t.Run("cursor out of range is ignored", func(t *testing.T) {
		m := scrollModel(20, 10)
		m.cursor = 7
		m.scroll = 3
		m.ensureCursorVisible()
		if m.scroll != 3 {
			t.Errorf("scroll = %d, want 3", m.scroll)
		}
	})
}

// --- view height methods --------------------------------------------------

func TestViewHeights(t *testing.T) {
	tests := []struct {
		name string
		m    model
		fn   func(model) int
		want int
	}{
		{"list", model{height: 40}, model.listViewHeight, 37},
		{"detail", model{height: 40}, model.detailViewHeight, 37},
		{"picker", model{height: 40}, model.pickerViewHeight, 35},
		{"list with error banner", model{height: 40, lastErr: errors.New("boom")}, model.listViewHeight, 36},
		{"list with watch banner", model{height: 40, watchErr: errors.New("gone")}, model.listViewHeight, 36},
		{"tiny list guards", model{height: 2}, model.listViewHeight, 1},
		{"tiny picker guards", model{height: 4}, model.pickerViewHeight, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.m); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

// --- computeLineOffsets / renderListBody agreement ------------------------

func TestLineOffsetsMatchRender(t *testing.T) {
	m := testModel()
	body := m.renderListBody(m.clampWidth())
	total := strings.Count(body, "\n") + 1
	if m.totalRenderedLines != total {
		t.Errorf("totalRenderedLines = %d, rendered = %d", m.totalRenderedLines, total)
	}

	want := 0
	for i := range m.visibleEntries() {
		if m.lineOffsets[i] != want {
			t.Errorf("entry %d: lineOffset = %d, want %d", i, m.lineOffsets[i], want)
		}
		want += m.entryLines[i] + 1
	}
}

func TestComputeDetailMaxScroll(t *testing.T) {
	m := testModel()
	m.height = 6
	m.view = viewDetail
	m.detailScroll = 1000
	m.computeDetailMaxScroll()
	if m.detailScroll != m.detailMaxScroll {
		t.Errorf("detailScroll = %d, want clamped to %d", m.detailScroll, m.detailMaxScroll)
	}

	m.width = 0
	m.computeDetailMaxScroll()
	if m.detailMaxScroll != 0 {
		t.Errorf("detailMaxScroll = %d, want 0 with no width", m.detailMaxScroll)
	}
}
