package target

import "testing"

func TestURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		id      string
		want    string
	}{
		{
			name:    "local default",
			baseURL: "http://localhost:3000",
			id:      "abc123",
			want:    "http://localhost:3000/api/v1/prediction/abc123",
		},
		{
			name:    "trailing slash",
			baseURL: "https://flow.example.com/",
			id:      "abc123",
			want:    "https://flow.example.com/api/v1/prediction/abc123",
		},
		{
			name:    "path prefix",
			baseURL: "https://example.com/flowise",
			id:      "f00d",
			want:    "https://example.com/flowise/api/v1/prediction/f00d",
		},
		{
			name:    "whitespace",
			baseURL: " http://localhost:3000 ",
			id:      " abc123 ",
			want:    "http://localhost:3000/api/v1/prediction/abc123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(tt.baseURL, tt.id).URL(); got != tt.want {
				t.Errorf("URL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		target  Target
		wantErr bool
	}{
		{name: "valid", target: New("http://localhost:3000", "abc"), wantErr: false},
		{name: "empty base", target: New("", "abc"), wantErr: true},
		{name: "no scheme", target: New("localhost:3000", "abc"), wantErr: true},
		{name: "empty id", target: New("http://localhost:3000", ""), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.target.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantBase string
		wantID   string
		wantErr  bool
	}{
		{
			name:     "local url",
			input:    "http://localhost:3000/api/v1/prediction/abc123",
			wantBase: "http://localhost:3000",
			wantID:   "abc123",
		},
		{
			name:     "path prefix and query",
			input:    "https://example.com/flowise/api/v1/prediction/abc123?x=1",
			wantBase: "https://example.com/flowise",
			wantID:   "abc123",
		},
		{
			name:     "trailing slash",
			input:    "https://example.com/api/v1/prediction/abc123/",
			wantBase: "https://example.com",
			wantID:   "abc123",
		},
		{
			name:    "missing id",
			input:   "http://localhost:3000/api/v1/prediction/",
			wantErr: true,
		},
		{
			name:    "not a prediction url",
			input:   "http://localhost:3000/api/v1/chatflows/abc",
			wantErr: true,
		},
		{
			name:    "no scheme",
			input:   "localhost:3000/api/v1/prediction/abc",
			wantErr: true,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got.BaseURL != tt.wantBase {
				t.Errorf("Parse() base = %v, want %v", got.BaseURL, tt.wantBase)
			}
			if got.ChatflowID != tt.wantID {
				t.Errorf("Parse() id = %v, want %v", got.ChatflowID, tt.wantID)
			}
		})
	}
}

func TestIsPredictionURL(t *testing.T) {
	if !IsPredictionURL("http://localhost:3000/api/v1/prediction/abc") {
		t.Error("expected prediction URL to be detected")
	}
	if IsPredictionURL("abc123") {
		t.Error("bare chatflow ID detected as URL")
	}
}
