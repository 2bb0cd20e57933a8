package interpreter

import (
	"strings"
	"testing"
	"time"

	"agriwater-platform/internal/catalog"
)

func TestBuildPromptIsStable(t *testing.T) {
	cat := catalog.NewOregon()
	today := time.Date(2023, time.September, 1, 0, 0, 0, 0, time.UTC)

	first := BuildPrompt(cat, today)
	for i := 0; i < 5; i++ {
		if got := BuildPrompt(cat, today); got != first {
			t.Fatal("prompt text should be identical between builds")
		}
	}
}

func TestBuildPromptListsCropsInCodeOrder(t *testing.T) {
	cat := catalog.NewOregon()
	prompt := BuildPrompt(cat, time.Date(2023, time.September, 1, 0, 0, 0, 0, time.UTC))

	var names []string
	for _, crop := range cat.Crops.Ordered() {
		names = append(names, crop.Name)
	}
	if !strings.Contains(prompt, "Known crops: "+strings.Join(names, ", ")) {
		t.Errorf("prompt should list crops in CDL code order, got:\n%s", prompt)
	}
}
