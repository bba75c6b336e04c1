package reducer

import (
	"strings"
	"testing"

	. "github.com/onsi/gomega"
)

func TestListReducers(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "DDMinChars", want: "x"},
		{name: "DDMinTokens", want: "x"},
		{name: "DDMinTokensReverse", want: "x"},
		{name: "DDMinLines", want: "print (x + 3);"},
		{name: "ListReducerLines*", want: "print (x + 3);"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGomegaWithT(t)
			f := newFixture(g)
			red, err := New(tt.name, f.config())
			g.Expect(err).ToNot(HaveOccurred())

			rec := &recorder{holds: func(text string) bool { return strings.Contains(text, "x") }}
			result, r := reduce(g, f.parse(g, program), red, rec, true)
			g.Expect(result).To(Equal(tt.want))
			g.Expect(r.Best()).To(Equal(tt.want))
		})
	}
}

func TestSlicers(t *testing.T) {
	g := NewGomegaWithT(t)
	f := newFixture(g)
	tr := f.parse(g, "a = 1;\n\nb = 2;\n")

	lines := lineSlicer{}.Slice(tr)
	g.Expect(lines).To(Equal([]string{"a = 1;", "", "b = 2;", ""}))
	g.Expect(lineSlicer{}.Join(lines)).To(Equal("a = 1;\n\nb = 2;\n"))

	tokens := tokenSlicer{}.Slice(tr)
	g.Expect(tokens).To(HaveLen(9))
	g.Expect(tokenSlicer{}.Join(tokens)).To(Equal("a = 1;\n\nb = 2;\n"))
	g.Expect(tokenSlicer{}.Join(tokens[4:])).To(Equal("\n\nb = 2;\n"))

	g.Expect(charSlicer{}.Slice(tr)).To(HaveLen(len("a = 1;\n\nb = 2;\n")))
}
