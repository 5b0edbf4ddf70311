package main

import (
	"github.com/stretchr/testify/require"
	"testing"
)

func TestParseCase(t *testing.T) {
	tests := []struct {
		name      string
		crime     string
		ncrp      string
		wantCrime string
		wantErr   bool
	}{
		{name: "valid", crime: " 21/2025 u/s 318 BNS ", ncrp: "11223344556677", wantCrime: "21/2025 u/s 318 BNS"},
		{name: "free form crime number", crime: "FIR-7", ncrp: " 11223344556677", wantCrime: "FIR-7"},
		{name: "empty crime number", crime: "  ", ncrp: "11223344556677", wantErr: true},
		{name: "short NCRP ID", crime: "21/2025", ncrp: "1122334455667", wantErr: true},
		{name: "NCRP ID with letters", crime: "21/2025", ncrp: "1122334455667A", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, err := parseCase(tt.crime, tt.ncrp)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "11223344556677", c.ReportRef)
			require.Equal(t, tt.wantCrime, c.CrimeNumber)
		})
	}
}

func TestLettersHelp_listsCatalog(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		long string
		want []string
	}{
		{name: "inter", long: interCmd.Long, want: []string{"Built-in platforms: Facebook, Google,", "WhatsApp."}},
		{name: "tsp", long: tspCmd.Long, want: []string{"Built-in request types: Aadhar linked numbers, CAF,", "IMEI CDR"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			for _, want := range tt.want {
				require.Contains(t, tt.long, want)
			}
		})
	}
}
