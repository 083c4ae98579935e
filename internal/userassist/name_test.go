package userassist_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/blackwell-systems/uassist/internal/guidmap"
	"github.com/blackwell-systems/uassist/internal/userassist"
)

const systemGUID = "1AC14E77-02E7-4E5D-B744-2EB1AE5198B7"

func testTable(t *testing.T) *guidmap.Table {
	t.Helper()
	table, err := guidmap.New(map[string]string{systemGUID: "System"})
	gt.NoError(t, err).Required()
	return table
}

func TestROT13(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"HRZR_PGYFRFFVBA", "UEME_CTLSESSION"},
		{"HRZR_EHACNGU", "UEME_RUNPATH"},
		{"zfcnvag.rkr", "mspaint.exe"},
		{`P:\Jvaqbjf\flfgrz32\pzq.rkr`, `C:\Windows\system32\cmd.exe`},
		{"0123-_{}\\. ", "0123-_{}\\. "},
		{"", ""},
	}

	for _, tt := range tests {
		gt.Value(t, userassist.ROT13(tt.in)).Equal(tt.want)
	}
}

func TestROT13_SelfInverse(t *testing.T) {
	inputs := []string{
		"abcdefghijklmnopqrstuvwxyz",
		"ABCDEFGHIJKLMNOPQRSTUVWXYZ",
		"MixedCase",
		"{1AC14E77-02E7-4E5D-B744-2EB1AE5198B7}\\mspaint.exe",
		"ünïcödé stays put",
	}
	for _, s := range inputs {
		gt.Value(t, userassist.ROT13(userassist.ROT13(s))).Equal(s)
	}
}

func TestROT13_NonAlphaFixed(t *testing.T) {
	s := "0123456789 !@#$%^&*()_+-=[]{};:'\",./<>?\\|ß"
	gt.Value(t, userassist.ROT13(s)).Equal(s)
}

func TestSubstituteGUID(t *testing.T) {
	table := testTable(t)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "known guid",
			in:   "{" + systemGUID + "}\\mspaint.exe",
			want: "{System}\\mspaint.exe",
		},
		{
			name: "lowercase guid",
			in:   "{1ac14e77-02e7-4e5d-b744-2eb1ae5198b7}\\notepad.exe",
			want: "{System}\\notepad.exe",
		},
		{
			name: "unknown guid keeps reference",
			in:   "{00000000-1111-2222-3333-444444444444}\\tool.exe",
			want: "{Unknown GUID: 00000000-1111-2222-3333-444444444444}\\tool.exe",
		},
		{
			name: "prefix and suffix preserved",
			in:   "before {" + systemGUID + "} after",
			want: "before {System} after",
		},
		{
			name: "only first token replaced",
			in:   "{" + systemGUID + "}\\{" + systemGUID + "}",
			want: "{System}\\{" + systemGUID + "}",
		},
		{
			name: "no token",
			in:   "C:\\Windows\\explorer.exe",
			want: "C:\\Windows\\explorer.exe",
		},
		{
			name: "not a guid shape",
			in:   "{Microsoft.Windows.Explorer}",
			want: "{Microsoft.Windows.Explorer}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, userassist.SubstituteGUID(tt.in, table)).Equal(tt.want)
		})
	}
}

func TestSubstituteGUID_Idempotent(t *testing.T) {
	table := testTable(t)
	once := userassist.SubstituteGUID("{"+systemGUID+"}\\mspaint.exe", table)
	gt.Value(t, userassist.SubstituteGUID(once, table)).Equal(once)
}

func TestDecodeName(t *testing.T) {
	table := testTable(t)
	raw := userassist.ROT13("{" + systemGUID + "}\\mspaint.exe")
	gt.Value(t, userassist.DecodeName(raw, table)).Equal("{System}\\mspaint.exe")
}
