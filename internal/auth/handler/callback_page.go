package handler

import (
	"encoding/json"
	"html/template"
	"net/http"
	"net/url"

	"porter/internal/auth/models"
)

// The Google callback lands in a popup window. The page hands the result to
// the opener via postMessage and closes itself; when there is no opener it
// falls back to a full-page redirect carrying the result in query params.

type callbackPageData struct {
	Payload     template.JS
	Origin      string
	RedirectURL string
	Name        string
	Error       string
}

var successPage = template.Must(template.New("oauth-success").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Authentication Successful</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            height: 100vh;
            margin: 0;
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
        }
        .container {
            text-align: center;
            padding: 40px;
            background: rgba(255, 255, 255, 0.1);
            border-radius: 20px;
        }
        .success-icon { font-size: 64px; margin-bottom: 20px; }
        .message { font-size: 18px; margin-bottom: 30px; }
    </style>
    <script>
        if (window.opener && !window.opener.closed) {
            window.opener.postMessage({{.Payload}}, '{{.Origin}}');
            setTimeout(function () { window.close(); }, 1000);
        } else {
            window.location.href = '{{.RedirectURL}}';
        }
    </script>
</head>
<body>
    <div class="container">
        <div class="success-icon">&#9989;</div>
        <h1>Authentication Successful!</h1>
        <p class="message">Welcome, {{.Name}}!</p>
        <p>Closing window automatically...</p>
    </div>
</body>
</html>
`))

var errorPage = template.Must(template.New("oauth-error").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Authentication Failed</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            height: 100vh;
            margin: 0;
            background: linear-gradient(135deg, #ff6b6b 0%, #ee5a24 100%);
            color: white;
        }
        .container {
            text-align: center;
            padding: 40px;
            background: rgba(255, 255, 255, 0.1);
            border-radius: 20px;
        }
        .error-icon { font-size: 64px; margin-bottom: 20px; }
    </style>
    <script>
        if (window.opener && !window.opener.closed) {
            window.opener.postMessage({{.Payload}}, '{{.Origin}}');
            setTimeout(function () { window.close(); }, 2000);
        } else {
            window.location.href = '{{.RedirectURL}}';
        }
    </script>
</head>
<body>
    <div class="container">
        <div class="error-icon">&#10060;</div>
        <h1>Authentication Failed</h1>
        <p>{{.Error}}</p>
        <p>Closing window...</p>
    </div>
</body>
</html>
`))

func (h *Handler) serveSuccessPage(w http.ResponseWriter, result *models.AuthResult) {
	userJSON, err := json.Marshal(result.User)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	payload, err := json.Marshal(map[string]json.RawMessage{
		"type":  json.RawMessage(`"OAUTH_SUCCESS"`),
		"token": mustJSON(result.Token),
		"user":  userJSON,
	})
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	redirect := h.frontendURL + "?" + url.Values{
		"auth":   {"google"},
		"status": {"success"},
		"token":  {result.Token},
		"user":   {string(userJSON)},
	}.Encode()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = successPage.Execute(w, callbackPageData{
		Payload:     template.JS(payload),
		Origin:      h.frontendURL,
		RedirectURL: redirect,
		Name:        result.User.Name,
	})
}

func (h *Handler) serveErrorPage(w http.ResponseWriter, message string) {
	payload, err := json.Marshal(map[string]string{
		"type":  "OAUTH_ERROR",
		"error": message,
	})
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	redirect := h.frontendURL + "?" + url.Values{
		"auth":    {"google"},
		"status":  {"error"},
		"message": {message},
	}.Encode()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = errorPage.Execute(w, callbackPageData{
		Payload:     template.JS(payload),
		Origin:      h.frontendURL,
		RedirectURL: redirect,
		Error:       message,
	})
}

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}
