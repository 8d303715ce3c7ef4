package models

import (
	"sort"
	"testing"
)

func TestTagsRoundTrip(t *testing.T) {
	stored := JoinTags([]string{"b", " a ", ""})
	if stored != "b,a" {
		t.Fatalf("unexpected stored tags %q", stored)
	}

	video := Video{Tags: stored}
	got := video.TagList()
	sort.Strings(got)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected tag list %v", got)
	}
}

func TestSplitTagsEmpty(t *testing.T) {
	if tags := SplitTags("  "); tags != nil {
		t.Fatalf("expected nil tags got %v", tags)
	}
	if JoinTags(nil) != "" {
		t.Fatal("expected empty string for nil tags")
	}
}

func TestVideoStatusValid(t *testing.T) {
	for _, status := range []VideoStatus{VideoStatusUploading, VideoStatusProcessing, VideoStatusCompleted, VideoStatusFailed} {
		if !status.Valid() {
			t.Fatalf("expected %q to be valid", status)
		}
	}
	if VideoStatus("deleted").Valid() {
		t.Fatal("expected unknown status to be invalid")
	}
}
