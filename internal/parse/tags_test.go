package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTags(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected []string
	}{
		{name: "Comma separated with spaces", raw: "1, 2, 3", expected: []string{"1", "2", "3"}},
		{name: "Leading zeros kept", raw: "007,010", expected: []string{"007", "010"}},
		{name: "Empty entries dropped", raw: " ,5,, 6 ,", expected: []string{"5", "6"}},
		{name: "Single tag", raw: "42", expected: []string{"42"}},
		{name: "Only separators", raw: " , , ", expected: []string{}},
		{name: "Empty input", raw: "", expected: []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Tags(tc.raw))
		})
	}
}
