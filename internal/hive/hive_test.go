package hive_test

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/blackwell-systems/uassist/internal/hive"
	"github.com/blackwell-systems/uassist/internal/hive/hivetest"
)

const userAssistCount = `Software\Microsoft\Windows\CurrentVersion\Explorer\UserAssist\` + hivetest.UserAssistGUID + `\Count`

func TestNew_RejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", []byte("regf")},
		{"wrong signature", make([]byte, 0x2000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := hive.New(tt.data)
			if !errors.Is(err, hive.ErrFormat) {
				t.Errorf("New() error = %v, want ErrFormat", err)
			}
		})
	}
}

func TestOpenKey(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 72)
	h, err := hive.New(hivetest.Build(hivetest.UserAssist(hivetest.UserAssistGUID,
		hivetest.Value{Name: "HRZR_PGYFRFFVBA", Data: make([]byte, 16)},
		hivetest.Value{Name: "zfcnvag.rkr", Data: payload},
	)))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	root, err := h.Root()
	if err != nil {
		t.Fatalf("Root() failed: %v", err)
	}
	if root.Name() != "ROOT" {
		t.Errorf("root name = %q, want ROOT", root.Name())
	}

	count, err := h.OpenKey(userAssistCount)
	if err != nil {
		t.Fatalf("OpenKey() failed: %v", err)
	}
	if count.Name() != "Count" {
		t.Errorf("key name = %q, want Count", count.Name())
	}

	values, err := count.Values()
	if err != nil {
		t.Fatalf("Values() failed: %v", err)
	}
	if len(values) != 2 {
		t.Fatalf("expected 2 values, got %d", len(values))
	}
	if values[0].Name() != "HRZR_PGYFRFFVBA" || len(values[0].Data) != 16 {
		t.Errorf("unexpected first value %q (%d bytes)", values[0].Name(), len(values[0].Data))
	}
	if values[1].Name() != "zfcnvag.rkr" || !bytes.Equal(values[1].Data, payload) {
		t.Errorf("unexpected second value %q", values[1].Name())
	}
	if values[1].Type != hive.RegBinary {
		t.Errorf("value type = %d, want REG_BINARY", values[1].Type)
	}
}

func TestOpenKey_CaseInsensitive(t *testing.T) {
	h, err := hive.New(hivetest.Build(hivetest.UserAssist(hivetest.UserAssistGUID)))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if _, err := h.OpenKey(`\SOFTWARE\microsoft\WINDOWS\currentversion\explorer\userassist`); err != nil {
		t.Errorf("OpenKey() should match case-insensitively: %v", err)
	}
}

func TestOpenKey_NotFound(t *testing.T) {
	h, err := hive.New(hivetest.Build(hivetest.Nest(hivetest.Key{Name: "Explorer"}, "ROOT", "Software")))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	_, err = h.OpenKey(`Software\Explorer\UserAssist`)
	if !errors.Is(err, hive.ErrKeyNotFound) {
		t.Errorf("OpenKey() error = %v, want ErrKeyNotFound", err)
	}
}

func TestValues_UTF16AndInline(t *testing.T) {
	h, err := hive.New(hivetest.Build(hivetest.Key{
		Name: "ROOT",
		Values: []hivetest.Value{
			{Name: "Ünïcode.exe", UTF16: true, Data: make([]byte, 72)},
			{Name: "tiny", Data: []byte{1, 2, 3}},
			{Name: "empty"},
		},
	}))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	root, err := h.Root()
	if err != nil {
		t.Fatalf("Root() failed: %v", err)
	}

	values, err := root.Values()
	if err != nil {
		t.Fatalf("Values() failed: %v", err)
	}
	if len(values) != 3 {
		t.Fatalf("expected 3 values, got %d", len(values))
	}
	if values[0].Compressed || values[0].Name() != "Ünïcode.exe" {
		t.Errorf("UTF-16 name decoded as %q (compressed=%v)", values[0].Name(), values[0].Compressed)
	}
	if !bytes.Equal(values[1].Data, []byte{1, 2, 3}) {
		t.Errorf("inline data = %v, want [1 2 3]", values[1].Data)
	}
	if len(values[2].Data) != 0 {
		t.Errorf("empty value should have no data, got %v", values[2].Data)
	}
}

func TestSubkeys(t *testing.T) {
	h, err := hive.New(hivetest.Build(hivetest.Key{
		Name:    "ROOT",
		Subkeys: []hivetest.Key{{Name: "a"}, {Name: "b"}, {Name: "c"}},
	}))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	root, _ := h.Root()
	subkeys, err := root.Subkeys()
	if err != nil {
		t.Fatalf("Subkeys() failed: %v", err)
	}

	var names []string
	for _, k := range subkeys {
		names = append(names, k.Name())
	}
	if len(names) != 3 || names[0] != "a" || names[2] != "c" {
		t.Errorf("subkeys = %v, want [a b c]", names)
	}
}

func TestOpen(t *testing.T) {
	path := hivetest.WriteFile(t, t.TempDir(), "NTUSER.DAT", hivetest.UserAssist(hivetest.UserAssistGUID))
	if _, err := hive.Open(path); err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	if _, err := hive.Open(filepath.Join(t.TempDir(), "missing.dat")); err == nil {
		t.Error("Open() should fail for a missing file")
	}
}
