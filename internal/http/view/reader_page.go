package view

import (
	"bytes"
	"html/template"
)

// ReaderPageData provides the dynamic fields required by the reader template.
type ReaderPageData struct {
	Title      string
	URL        string
	Content    template.HTML
	HasArchive bool
	Highlights []ReaderHighlight
}

// ReaderHighlight is a highlight rendered under the article.
type ReaderHighlight struct {
	Text     string
	NoteHTML template.HTML
}

var readerPageTmpl = template.Must(template.New("reader_page").Parse(`
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<title>{{if .Title}}{{.Title}}{{else}}Untitled{{end}} · Linxify</title>
	<style>
		:root {
			--bg: #fbfaf7;
			--text: #1f2328;
			--muted: #6e7781;
			--border: #d0d7de;
			--accent: #0969da;
			--mark: #fff1a8;
			font-family: Georgia, "Times New Roman", serif;
		}
		* { box-sizing: border-box; }
		body {
			margin: 0;
			background: var(--bg);
			color: var(--text);
		}
		.container {
			width: min(760px, 92vw);
			margin: 0 auto;
			padding: 32px 0 64px;
		}
		.toolbar {
			display: flex;
			gap: 8px;
			margin-bottom: 24px;
			font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
		}
		.toolbar a {
			padding: 6px 14px;
			border: 1px solid var(--border);
			border-radius: 6px;
			color: var(--accent);
			text-decoration: none;
			font-size: 0.875rem;
		}
		h1 {
			font-size: 2rem;
			line-height: 1.25;
			margin-bottom: 24px;
		}
		.reader-content {
			font-size: 1.125rem;
			line-height: 1.7;
		}
		.reader-content img { max-width: 100%; height: auto; }
		.reader-content pre { overflow-x: auto; }
		.notice {
			padding: 14px 18px;
			border: 1px solid var(--border);
			border-radius: 8px;
			background: #ddf4ff;
			font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
			margin-bottom: 16px;
		}
		iframe.live {
			width: 100%;
			height: 80vh;
			border: 1px solid var(--border);
			border-radius: 8px;
			background: #fff;
		}
		.highlights {
			margin-top: 48px;
			border-top: 1px solid var(--border);
			padding-top: 24px;
		}
		.highlights h2 {
			font-size: 1.25rem;
		}
		.highlight {
			margin-bottom: 20px;
		}
		.highlight mark {
			background: var(--mark);
			padding: 2px 0;
		}
		.highlight .note {
			color: var(--muted);
			font-size: 0.95rem;
			margin-top: 6px;
		}
	</style>
</head>
<body>
	<div class="container">
		<div class="toolbar">
			<a href="/dashboard">&larr; Back to Dashboard</a>
			<a href="{{.URL}}" target="_blank" rel="noopener noreferrer">View Original Article</a>
		</div>

		<h1>{{if .Title}}{{.Title}}{{else}}Untitled{{end}}</h1>

		{{if .HasArchive}}
		<article class="reader-content">{{.Content}}</article>
		{{else}}
		<div class="notice">
			No archived version available.
			<a href="{{.URL}}" target="_blank" rel="noopener noreferrer">View live article instead</a>
		</div>
		<iframe class="live" src="{{.URL}}" sandbox="allow-same-origin allow-scripts" referrerpolicy="no-referrer"></iframe>
		{{end}}

		{{if .Highlights}}
		<section class="highlights">
			<h2>Highlights</h2>
			{{range .Highlights}}
			<div class="highlight">
				<mark>{{.Text}}</mark>
				{{if .NoteHTML}}<div class="note">{{.NoteHTML}}</div>{{end}}
			</div>
			{{end}}
		</section>
		{{end}}
	</div>
</body>
</html>
`))

// RenderReaderPage expands the reader page template with the provided data.
func RenderReaderPage(data ReaderPageData) (string, error) {
	var buf bytes.Buffer
	if err := readerPageTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
