package search

import "strings"

// sampleSequences maps common part types to a representative sequence shown
// alongside QA sources. Reference data for display only; it never influences
// retrieval or answer grounding.
var sampleSequences = map[string]string{
	"promoter":   "TTGACGGCTAGCTCAGTCCTAGGTACAGTGCTAGC",
	"rbs":        "AAAGAGGAGAAA",
	"cds":        "ATGGCTTCCTCCGAAGACGTTATCAAAGAGTTCATGCGTTTC",
	"terminator": "CCAGGCATCAAATAAAACGAAAGGCTCAGTCGAAAGACTGGGCCTTTCGTTTTATCTGTT",
	"plasmid":    "TCGCGCGTTTCGGTGATGACGGTGAAAACCTCTGACACATGCAGCTCCCGGAGACGG",
	"backbone":   "TCGCGCGTTTCGGTGATGACGGTGAAAACCTCTGACACATGCAGCTCCCGGAGACGG",
	"rna":        "GGGAGACCACAACGGUUUCCCUCUAGAAAUAAUUUUGUUUAACUUUAAGAAGGAGAUAUACAU",
	"regulatory": "TTGACAGCTAGCTCAGTCCTAGGTATAATGCTAGC",
}

// SampleSequence returns a representative sequence for a part type, or the
// empty string when no reference entry exists.
func SampleSequence(partType string) string {
	key := strings.ToLower(strings.TrimSpace(partType))
	if seq, ok := sampleSequences[key]; ok {
		return seq
	}
	// Type strings from the hierarchy can be phrases ("Regulatory",
	// "Promoter parts"); match on any known word.
	for word, seq := range sampleSequences {
		if strings.Contains(key, word) {
			return seq
		}
	}
	return ""
}
