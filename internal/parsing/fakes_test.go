package parsing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/dgallion1/docseg/internal/markdown"
	"github.com/dgallion1/docseg/internal/pagemodel"
	"github.com/dgallion1/docseg/internal/pdfdoc"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(deps Deps) *Engine {
	e := NewEngine(deps, discardLogger())
	e.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return e
}

type fakeOpener struct {
	doc *fakeDoc
	err error
}

func (o *fakeOpener) Open(string) (pdfdoc.Document, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.doc, nil
}

type fakeDoc struct {
	tables    map[int][][][]string
	tablesErr error
	images    map[int][]pdfdoc.Image
	imagesErr error
	closed    bool
}

func (d *fakeDoc) PageCount() (int, error) { return len(d.tables), nil }

func (d *fakeDoc) Tables(page int) ([][][]string, error) {
	if d.tablesErr != nil {
		return nil, d.tablesErr
	}
	return d.tables[page], nil
}

func (d *fakeDoc) Images(page int) ([]pdfdoc.Image, error) {
	if d.imagesErr != nil {
		return nil, d.imagesErr
	}
	return d.images[page], nil
}

func (d *fakeDoc) Close() error {
	d.closed = true
	return nil
}

func imageOf(index int, data string, err error) pdfdoc.Image {
	return pdfdoc.Image{Index: index, Bytes: func() ([]byte, error) {
		if err != nil {
			return nil, err
		}
		return []byte(data), nil
	}}
}

// fakeOCR "recognizes" bytes as themselves and files through a lookup table.
type fakeOCR struct {
	files  map[string]string
	failOn string
	calls  []string
}

func (o *fakeOCR) FromBytes(_ context.Context, data []byte) (string, error) {
	o.calls = append(o.calls, string(data))
	if string(data) == o.failOn {
		return "", errors.New("tesseract failed")
	}
	return string(data), nil
}

func (o *fakeOCR) FromFile(_ context.Context, path string) (string, error) {
	o.calls = append(o.calls, path)
	if path == o.failOn {
		return "", errors.New("tesseract failed")
	}
	return o.files[path], nil
}

type fakeRenderer struct {
	html string
	err  error
}

func (r fakeRenderer) Render([]byte) (string, error) { return r.html, r.err }

type fakePartitioner struct {
	elements []markdown.Element
	err      error
}

func (p fakePartitioner) PartitionFile(string) ([]markdown.Element, error) {
	return p.elements, p.err
}

func pdfPages() []pagemodel.Page {
	return []pagemodel.Page{
		{Number: 1, Text: "Quarterly numbers\nRegion Sales"},
		{Number: 2, Text: "Closing remarks"},
	}
}
