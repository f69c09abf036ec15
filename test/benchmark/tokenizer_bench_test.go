package benchmark

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/fields"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/parser"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/tokenstore"
	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/config"
)

var sampleTexts = map[string]string{
	"short": "The quick brown fox jumps over the lazy dog",
	"medium": `Distributed search engines process queries across multiple shards to achieve
        horizontal scalability. Each shard maintains its own inverted index and responds
        to queries independently. Results are merged using a global ranking algorithm
        that accounts for term frequency and inverse document frequency across the
        entire corpus.`,
	"utf8": strings.Repeat("Übergrößenträger naïve café ½ déjà vu, señor. ", 20),
	"long": strings.Repeat(`Information retrieval systems form the backbone of modern search
        infrastructure. These systems combine tokenization, stemming, and stop word
        removal to normalize text into searchable terms. `, 20),
}

func BenchmarkTokenize(b *testing.B) {
	a := tokenizer.NewAnalyzer(config.Default().Analyzer)
	meta := &fields.MetaName{ID: 1, Name: fields.DefaultMetaName}
	for name, text := range sampleTexts {
		buf := []byte(text)
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(buf)))
			store := tokenstore.New()
			for i := 0; i < b.N; i++ {
				store.Reset()
				if _, err := a.Tokenize(buf, tokenizer.Request{Meta: meta, Context: fields.DefaultMetaName, Store: store}); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkTokenizeParallel(b *testing.B) {
	a := tokenizer.NewAnalyzer(config.Default().Analyzer)
	meta := &fields.MetaName{ID: 1, Name: fields.DefaultMetaName}
	buf := []byte(sampleTexts["medium"])
	b.ReportAllocs()
	b.SetBytes(int64(len(buf)))
	b.RunParallel(func(pb *testing.PB) {
		store := tokenstore.New()
		for pb.Next() {
			store.Reset()
			if _, err := a.Tokenize(buf, tokenizer.Request{Meta: meta, Context: fields.DefaultMetaName, Store: store}); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkParseHTML(b *testing.B) {
	cfg := config.Default()
	table, err := fields.New(cfg.Fields)
	if err != nil {
		b.Fatal(err)
	}
	p := parser.New(cfg, table, nil)

	for _, paras := range []int{10, 100, 1000} {
		var sb strings.Builder
		sb.WriteString("<html><head><title>Benchmark page</title></head><body>")
		for i := 0; i < paras; i++ {
			fmt.Fprintf(&sb, "<p>Paragraph %d with <b>bold</b> and <a href=\"#\">linked</a> words.</p>", i)
		}
		sb.WriteString("</body></html>")
		body := []byte(sb.String())

		b.Run(fmt.Sprintf("paragraphs=%d", paras), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(body)))
			for i := 0; i < b.N; i++ {
				if _, err := p.ParseBuffer(context.Background(), parser.NewDocInfo("bench.html"), body); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
