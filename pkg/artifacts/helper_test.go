package artifacts

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"
)

func TestNumberedName(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want string
	}{
		{name: "result.c", n: 3, want: "result.0003.c"},
		{name: "result", n: 12, want: "result.0012"},
		{name: "dir/in.tar.gz", n: 1, want: "dir/in.tar.0001.gz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGomegaWithT(t)
			g.Expect(NumberedName(tt.name, tt.n)).To(Equal(tt.want))
		})
	}
}

func TestWriteAndList(t *testing.T) {
	g := NewGomegaWithT(t)
	h := &Helper{Dir: filepath.Join(t.TempDir(), "out")}

	name, err := h.WriteNumbered("successful/result.c", 7, "int main;")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(name).To(Equal("successful/result.0007.c"))
	g.Expect(h.Write("result.c", "x")).To(Succeed())

	names, err := h.List()
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(names).To(Equal([]string{"result.c", filepath.Join("successful", "result.0007.c")}))

	text, err := h.Read(name)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(text).To(Equal("int main;"))

	_, err = h.Open("missing")
	g.Expect(err).To(MatchError(ContainSubstring("failed to open file")))
}

func TestArchive(t *testing.T) {
	g := NewGomegaWithT(t)
	h := &Helper{Dir: filepath.Join(t.TempDir(), "run")}
	g.Expect(h.Write("a.txt", "a")).To(Succeed())
	g.Expect(h.Write("kept/b.txt", "bb")).To(Succeed())

	out := filepath.Join(t.TempDir(), "run.tar.gz")
	g.Expect(h.Archive(context.Background(), out)).To(Succeed())

	f, err := os.Open(out)
	g.Expect(err).ToNot(HaveOccurred())
	defer f.Close()
	gz, err := gzip.NewReader(f)
	g.Expect(err).ToNot(HaveOccurred())
	reader := tar.NewReader(gz)
	contents := map[string]string{}
	for {
		header, err := reader.Next()
		if err == io.EOF {
			break
		}
		g.Expect(err).ToNot(HaveOccurred())
		if header.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(reader)
		g.Expect(err).ToNot(HaveOccurred())
		contents[header.Name] = string(data)
	}
	g.Expect(contents).To(Equal(map[string]string{
		"run/a.txt":      "a",
		"run/kept/b.txt": "bb",
	}))
}

func TestDefaultDir(t *testing.T) {
	g := NewGomegaWithT(t)
	g.Expect(DefaultDir("/tmp/crash.c")).To(HaveSuffix(filepath.Join("treereduce", "crash")))
}
