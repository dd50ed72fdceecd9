package lob

import (
	"html"
	"strings"
)

// backTemplateHTML is the fallback back layout used when a job has no custom
// back design. Lob renders this HTML onto the 4x6 card.
const backTemplateHTML = `<html>
<head>
  <style>
    body { margin: 0; padding: 0; }
    .card {
      width: 6.25in;
      height: 4.25in;
      box-sizing: border-box;
      padding: 0.4in;
      font-family: Georgia, serif;
      display: flex;
      flex-direction: column;
      justify-content: space-between;
    }
    .message {
      font-size: 14pt;
      line-height: 1.5;
      color: #222;
    }
    .footer {
      font-size: 8pt;
      color: #999;
      text-align: center;
    }
  </style>
</head>
<body>
  <div class="card">
    <div class="message">{{MESSAGE}}</div>
    <div class="footer">Sent with &hearts; by Postanos</div>
  </div>
</body>
</html>`

// BackTemplate renders the text-only fallback back for a postcard. The
// message is HTML-escaped and newlines become line breaks, so the output is
// deterministic for a given message.
func BackTemplate(message string) string {
	escaped := html.EscapeString(message)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")
	return strings.Replace(backTemplateHTML, "{{MESSAGE}}", escaped, 1)
}
