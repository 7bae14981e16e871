// Package scrape fetches public job boards into the local posting store.
// The Greenhouse scraper is the default backing for the orchestrator's
// scraping refresh.
package scrape

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"jobhunterx-engine/internal/store"
)

type Greenhouse struct {
	DB     *sql.DB
	Boards []string // boards.greenhouse.io/<slug>
	hc     *http.Client
	lim    *rate.Limiter
}

func NewGreenhouse(db *sql.DB, boards []string, perHostRPS float64) *Greenhouse {
	if perHostRPS <= 0 {
		perHostRPS = 0.5
	}
	return &Greenhouse{
		DB:     db,
		Boards: boards,
		hc:     &http.Client{Timeout: 20 * time.Second},
		lim:    rate.NewLimiter(rate.Limit(perHostRPS), 1),
	}
}

// Scrape pulls every configured board, keeps postings matching the keyword
// group, and stores them deduped on (source, source_id). Returns how many new
// rows were added. One board being down never fails the whole run.
func (s *Greenhouse) Scrape(ctx context.Context, keywords []string, location string, maxJobs int) (int, error) {
	if maxJobs <= 0 {
		maxJobs = 50
	}
	added := 0
	for _, slug := range s.Boards {
		if added >= maxJobs {
			break
		}
		n, err := s.scrapeBoard(ctx, slug, keywords, maxJobs-added)
		if err != nil {
			log.Printf("[scrape] board %s: %v", slug, err)
			continue
		}
		added += n
	}
	return added, nil
}

func (s *Greenhouse) scrapeBoard(ctx context.Context, slug string, keywords []string, budget int) (int, error) {
	doc, err := s.get(ctx, fmt.Sprintf("https://boards.greenhouse.io/%s", slug))
	if err != nil {
		return 0, err
	}

	type lead struct {
		url   string
		title string
		sid   string
	}
	seen := map[string]bool{}
	var leads []lead
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		abs := strings.TrimSpace(href)
		if strings.HasPrefix(abs, "/") {
			abs = "https://boards.greenhouse.io" + abs
		}
		low := strings.ToLower(abs)
		if !strings.Contains(low, "boards.greenhouse.io") || !strings.Contains(low, "/jobs/") {
			return
		}
		jobID := digitsAfter(abs, "/jobs/")
		if jobID == "" {
			return
		}
		sid := fmt.Sprintf("greenhouse:%s:%s", slug, jobID)
		if seen[sid] {
			return
		}
		seen[sid] = true
		leads = append(leads, lead{url: abs, title: cleanText(a.Text()), sid: sid})
	})

	added := 0
	for _, l := range leads {
		if added >= budget {
			break
		}
		if !matchesKeywords(l.title, keywords) {
			continue
		}
		p := store.PostingInsert{
			ID:       uuid.NewString(),
			Title:    l.title,
			Company:  slug,
			URL:      l.url,
			Source:   "greenhouse",
			SourceID: l.sid,
		}
		if err := s.hydrate(ctx, &p); err != nil {
			log.Printf("[scrape] hydrate %s: %v", l.url, err)
		}
		ok, err := store.InsertPostingIgnore(ctx, s.DB, p)
		if err != nil {
			return added, err
		}
		if ok {
			added++
		}
	}
	return added, nil
}

// hydrate fills title, location and description from the job page. A failed
// hydrate keeps the minimal entry.
func (s *Greenhouse) hydrate(ctx context.Context, p *store.PostingInsert) error {
	doc, err := s.get(ctx, p.URL)
	if err != nil {
		return err
	}
	if t := cleanText(doc.Find("h1").First().Text()); t != "" {
		p.Title = t
	}
	if loc := cleanText(doc.Find(".location").First().Text()); loc != "" {
		p.Location = loc
	}
	if sel := doc.Find("#content").First(); sel.Length() > 0 {
		p.Description = cleanText(sel.Text())
	}
	if co := cleanText(doc.Find(".company-name").First().Text()); co != "" {
		p.Company = strings.TrimPrefix(co, "at ")
	}
	return nil
}

func (s *Greenhouse) get(ctx context.Context, url string) (*goquery.Document, error) {
	if err := s.lim.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "JobHunterX/1.0 (+local)")
	res, err := s.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("status %d", res.StatusCode)
	}
	return goquery.NewDocumentFromReader(res.Body)
}

func matchesKeywords(title string, keywords []string) bool {
	if title == "" {
		return false
	}
	if len(keywords) == 0 {
		return true
	}
	low := strings.ToLower(title)
	for _, kw := range keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k != "" && strings.Contains(low, k) {
			return true
		}
	}
	return false
}

func digitsAfter(u, sep string) string {
	parts := strings.Split(u, sep)
	if len(parts) < 2 {
		return ""
	}
	id := ""
	for _, r := range parts[1] {
		if r >= '0' && r <= '9' {
			id += string(r)
		} else {
			break
		}
	}
	return id
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}
