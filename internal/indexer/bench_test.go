package indexer_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/paylist-tw/docsearch/internal/document"
	"github.com/paylist-tw/docsearch/internal/indexer"
)

func BenchmarkBuild(b *testing.B) {
	body := strings.Repeat("門診診察費用標準 檢查項目金額 ", 20)
	for _, docCount := range []int{10, 100, 500} {
		docs := make([]document.Document, docCount)
		for i := range docs {
			docs[i] = document.Document{
				DocID: fmt.Sprintf("doc-%04d", i),
				Title: fmt.Sprintf("收費標準 %d", i),
				Sections: []document.Section{
					{ID: "s1", Heading: "門診費用", Content: body},
					{ID: "s2", Heading: "檢查費用", Content: body, Position: 600},
				},
			}
		}
		b.Run(fmt.Sprintf("docs_%d", docCount), func(b *testing.B) {
			builder := indexer.NewBuilder(testTokenizer(), nil)
			ctx := context.Background()
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := builder.Build(ctx, docs); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
