package crawl_fx

import (
	"os"

	"go.uber.org/fx"

	"sajangnote/internal/firecrawl"
)

var Module = fx.Provide(
	provideScraper)

func provideScraper() firecrawl.Scraper {
	return firecrawl.NewClient(os.Getenv("FIRECRAWL_API_KEY"), os.Getenv("FIRECRAWL_BASE_URL"))
}
