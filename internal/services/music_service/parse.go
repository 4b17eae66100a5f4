package services

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

var (
	// "Трек — Исполнитель. Слушать онлайн на Яндекс Музыке"
	titleRe = regexp.MustCompile(`^\s*(.+?)\s+[—–-]\s+(.+?)(?:\.\s*Слушать.*|\s*[|].*)?\s*$`)
	// ISO 8601 длительность вида PT3M25S
	isoDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)
)

type pageData struct {
	jsonLD []string
	meta   map[string]string
	title  string
}

func parseTrackPage(body []byte) (*TrackInfo, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	page := &pageData{meta: map[string]string{}}
	collect(doc, page)

	info := &TrackInfo{}
	for _, raw := range page.jsonLD {
		if fromJSONLD(raw, info) {
			break
		}
	}
	fromMeta(page.meta, info)
	fromTitle(page.title, info)

	if info.Artist == "" && info.TrackName == "" {
		return nil, ErrNoMetadata
	}

	info.CoverURL = normalizeCover(info.CoverURL)
	return info, nil
}

func collect(n *html.Node, page *pageData) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script":
			if getAttr(n, "type") == "application/ld+json" && n.FirstChild != nil {
				page.jsonLD = append(page.jsonLD, n.FirstChild.Data)
			}
		case "meta":
			key := getAttr(n, "property")
			if key == "" {
				key = getAttr(n, "name")
			}
			if key != "" {
				if _, seen := page.meta[key]; !seen {
					page.meta[key] = strings.TrimSpace(getAttr(n, "content"))
				}
			}
		case "title":
			if page.title == "" && n.FirstChild != nil {
				page.title = strings.TrimSpace(n.FirstChild.Data)
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(c, page)
	}
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

type ldNamed struct {
	Name string `json:"name"`
}

type ldRecording struct {
	Type     any             `json:"@type"`
	Name     string          `json:"name"`
	ByArtist json.RawMessage `json:"byArtist"`
	Image    json.RawMessage `json:"image"`
	Duration string          `json:"duration"`
	Graph    []ldRecording   `json:"@graph"`
}

func (r ldRecording) isRecording() bool {
	switch t := r.Type.(type) {
	case string:
		return t == "MusicRecording"
	case []any:
		for _, v := range t {
			if s, _ := v.(string); s == "MusicRecording" {
				return true
			}
		}
	}
	return false
}

func fromJSONLD(raw string, info *TrackInfo) bool {
	raw = strings.TrimSpace(raw)

	var candidates []ldRecording
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &candidates); err != nil {
			return false
		}
	} else {
		var one ldRecording
		if err := json.Unmarshal([]byte(raw), &one); err != nil {
			return false
		}
		candidates = append([]ldRecording{one}, one.Graph...)
	}

	for _, r := range candidates {
		if !r.isRecording() {
			continue
		}

		info.TrackName = r.Name
		info.Artist = artistName(r.ByArtist)
		info.CoverURL = imageURL(r.Image)
		if d, ok := parseISODuration(r.Duration); ok {
			info.Duration = &d
		}
		return info.TrackName != "" || info.Artist != ""
	}

	return false
}

func artistName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var one ldNamed
	if err := json.Unmarshal(raw, &one); err == nil && one.Name != "" {
		return one.Name
	}

	var many []ldNamed
	if err := json.Unmarshal(raw, &many); err == nil {
		names := make([]string, 0, len(many))
		for _, a := range many {
			if a.Name != "" {
				names = append(names, a.Name)
			}
		}
		return strings.Join(names, ", ")
	}

	var s string
	_ = json.Unmarshal(raw, &s)
	return s
}

func imageURL(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.URL
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}

func fromMeta(meta map[string]string, info *TrackInfo) {
	if info.TrackName == "" || info.Artist == "" {
		if track, artist, ok := splitTitle(meta["og:title"]); ok {
			setIfEmpty(&info.TrackName, track)
			setIfEmpty(&info.Artist, artist)
		} else {
			setIfEmpty(&info.TrackName, meta["og:title"])
		}
	}

	if info.Artist == "" {
		// og:description вида "Исполнитель • Трек • 2012"
		if desc := meta["og:description"]; desc != "" {
			artist, _, _ := strings.Cut(desc, "•")
			setIfEmpty(&info.Artist, strings.TrimSpace(artist))
		}
	}

	setIfEmpty(&info.CoverURL, meta["og:image"])

	if info.Duration == nil {
		if d, err := strconv.Atoi(meta["music:duration"]); err == nil && d > 0 {
			info.Duration = &d
		}
	}
}

func fromTitle(title string, info *TrackInfo) {
	if info.TrackName != "" && info.Artist != "" {
		return
	}
	if track, artist, ok := splitTitle(title); ok {
		setIfEmpty(&info.TrackName, track)
		setIfEmpty(&info.Artist, artist)
	}
}

func splitTitle(s string) (track, artist string, ok bool) {
	m := titleRe.FindStringSubmatch(s)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func parseISODuration(s string) (int, bool) {
	m := isoDurationRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil || (m[1] == "" && m[2] == "" && m[3] == "") {
		return 0, false
	}

	total := 0
	for i, mult := range []int{3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		n, _ := strconv.Atoi(m[i+1])
		total += n * mult
	}
	return total, true
}

// normalizeCover приводит адрес обложки Яндекса к абсолютному URL нужного размера.
func normalizeCover(u string) string {
	u = strings.TrimSpace(u)
	if u == "" {
		return ""
	}
	if strings.HasPrefix(u, "//") {
		u = "https:" + u
	}
	return strings.ReplaceAll(u, "%%", coverSize)
}
