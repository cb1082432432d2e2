package uploader

import "autopost/internal/locator"

// Logical controls on the publish surface, each an ordered strategy list.
// Earlier strategies are more specific.
var (
	loginIndicatorControl = locator.Control{
		Name: "login indicator",
		Strategies: []locator.Strategy{
			locator.Attribute("input", "type", locator.OpEquals, "file"),
			locator.Attribute("", "class", locator.OpContains, "upload"),
			locator.Attribute("", "class", locator.OpContains, "Upload"),
			locator.Attribute("iframe", "src", locator.OpContains, "upload"),
			locator.Attribute("", "data-e2e", locator.OpContains, "upload"),
			locator.Attribute("", "class", locator.OpContains, "creator"),
			locator.Attribute("", "class", locator.OpContains, "studio"),
		},
	}

	fileInputControl = locator.Control{
		Name: "file input",
		Strategies: []locator.Strategy{
			locator.Tag(`input[type="file"][accept*="video"]`),
			locator.Tag(`input[type="file"][accept*="mp4"]`),
			locator.Attribute("input", "type", locator.OpEquals, "file"),
			locator.Attribute("input", "name", locator.OpContains, "upload"),
			locator.Attribute("input", "name", locator.OpContains, "file"),
			locator.Attribute("", "data-e2e", locator.OpEquals, "upload-input"),
			locator.Tag(`[class*="upload"] input[type="file"]`),
		},
	}

	uploadAreaControl = locator.Control{
		Name: "upload area",
		Strategies: []locator.Strategy{
			locator.Attribute("", "class", locator.OpContains, "upload-card"),
			locator.Attribute("", "class", locator.OpContains, "UploadCard"),
			locator.Attribute("", "class", locator.OpContains, "upload-btn"),
			locator.Attribute("", "class", locator.OpContains, "UploadBtn"),
			locator.Attribute("", "data-e2e", locator.OpEquals, "upload-card"),
			locator.RoleText("button", "Select video"),
			locator.RoleText("button", "Pilih video"),
		},
	}

	captionControl = locator.Control{
		Name: "caption",
		Strategies: []locator.Strategy{
			locator.Tag(`[class*="caption"] [contenteditable="true"]`),
			locator.Attribute("", "class", locator.OpContains, "DraftEditor-root"),
			locator.Attribute("", "data-contents", locator.OpEquals, "true"),
			locator.Tag(".public-DraftEditor-content"),
			locator.Attribute("", "contenteditable", locator.OpEquals, "true"),
		},
	}

	postButtonControl = locator.Control{
		Name: "post button",
		Strategies: []locator.Strategy{
			locator.Tag(`button[class*="primary"]:has-text("Post")`),
			locator.Tag(`button[class*="Primary"]:has-text("Post")`),
			locator.Tag(`button[class*="TUXButton--primary"]:has-text("Post")`),
			locator.Tag(`form button:has-text("Post")`),
			locator.Tag(`div[class*="form"] button:has-text("Post")`),
			locator.Attribute("", "data-e2e", locator.OpEquals, "post_video_button"),
			locator.Attribute("", "data-e2e", locator.OpContains, "post"),
		},
	}

	// submitFallbackControl enumerates every button for label matching.
	submitFallbackControl = locator.Control{
		Name:       "button",
		Strategies: []locator.Strategy{locator.Tag("button")},
	}

	modalButtonControl = locator.Control{
		Name: "modal button",
		Strategies: []locator.Strategy{
			locator.Tag(`[class*="Modal"] button[class*="close"]`),
			locator.Tag(`[class*="Modal"] [aria-label="Close"]`),
			locator.Tag(`[class*="TUXModal"] button`),
			locator.RoleText("button", "Got it"),
			locator.RoleText("button", "OK"),
			locator.RoleText("button", "Mengerti"),
			locator.RoleText("button", "Tutup"),
		},
	}

	errorIndicatorControl = locator.Control{
		Name: "error indicator",
		Strategies: []locator.Strategy{
			locator.Tag(`[class*="error"]:not([class*="error-"])`),
			locator.Tag(`[class*="Error"]:not([class*="Error-"])`),
			locator.Attribute("", "role", locator.OpEquals, "alert"),
		},
	}

	progressControl = locator.Control{
		Name: "progress",
		Strategies: []locator.Strategy{
			locator.Attribute("", "class", locator.OpContains, "progress"),
			locator.Attribute("", "class", locator.OpContains, "Progress"),
			locator.Attribute("", "class", locator.OpContains, "uploading"),
		},
	}
)
