package searcher_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/paylist-tw/docsearch/internal/document"
	"github.com/paylist-tw/docsearch/internal/indexer"
	"github.com/paylist-tw/docsearch/internal/searcher"
)

func benchDocuments(n int) []document.Document {
	docs := make([]document.Document, n)
	body := strings.Repeat("門診診察費用標準 檢查項目金額 ", 10)
	for i := range docs {
		docs[i] = document.Document{
			DocID: fmt.Sprintf("doc-%04d", i),
			Title: fmt.Sprintf("收費標準 %d", i),
			Sections: []document.Section{
				{ID: "s1", Heading: "門診費用", Content: body},
				{ID: "s2", Heading: "檢查費用", Content: body, Position: 300},
			},
		}
	}
	return docs
}

func benchEngine(b *testing.B, docCount int) *searcher.Engine {
	b.Helper()
	tok := testTokenizer()
	snap, err := indexer.NewBuilder(tok, nil).Build(context.Background(), benchDocuments(docCount))
	if err != nil {
		b.Fatal(err)
	}
	e := searcher.New(tok, nil)
	e.Install(snap)
	return e
}

func BenchmarkSearchExact(b *testing.B) {
	for _, docCount := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("docs_%d", docCount), func(b *testing.B) {
			e := benchEngine(b, docCount)
			ctx := context.Background()
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, _, err := e.Search(ctx, "門診檢查", 20); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkSearchFuzzy(b *testing.B) {
	e := benchEngine(b, 100)
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// Not in the vocabulary, so every indexed term is compared.
		if _, _, err := e.Search(ctx, "clinik", 20); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSuggest(b *testing.B) {
	e := benchEngine(b, 1000)
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Suggest(ctx, "診", 10); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSearchParallel(b *testing.B) {
	e := benchEngine(b, 100)
	ctx := context.Background()
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, _, err := e.Search(ctx, "門診", 20); err != nil {
				b.Fatal(err)
			}
		}
	})
}
