package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Joe's Tacos-90210", "joe-s-tacos-90210"},
		{"Café Olé-10001", "cafe-ole-10001"},
		{"  Dr. Smith & Sons!-60601", "dr-smith-sons-60601"},
		{"ÜBER   Gym--02139", "uber-gym-02139"},
		{"東京 Ramen-94103", "dong-jing-ramen-94103"},
		{"Straße Café & Bar-90210", "strasse-cafe-bar-90210"},
		{"寿司-90210", "shou-si-90210"},
		{"Smørrebrød Łódź Æble-10001", "smorrebrod-lodz-aeble-10001"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}
