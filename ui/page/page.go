// Package page holds the server-rendered shell. The app itself is a small
// client in static/js; these components only deliver the skeleton.
package page

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

func Index() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, indexHTML)
		return err
	})
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>reps</title>
<link rel="stylesheet" href="/static/css/app.css">
</head>
<body>
<header class="topbar">
  <h1>reps</h1>
  <nav>
    <a href="#tasks" data-view="tasks">Tasks</a>
    <a href="#board" data-view="board">Board</a>
    <a href="#review" data-view="review">Review</a>
    <a href="#practice" data-view="practice">Practice</a>
    <a href="#stats" data-view="stats">Stats</a>
  </nav>
</header>
<main id="app" data-view="tasks"></main>
<script src="/static/js/app.js"></script>
</body>
</html>
`
