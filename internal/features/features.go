// Package features turns a raw URL string into the fixed-schema numeric
// vector the classifier was trained on. Extraction is deterministic and
// side-effect free; the schema (names, order, count) must never change
// without retraining the model.
package features

import (
	"errors"
	"fmt"
	"math"
	"net"
	"net/url"
	"slices"
	"strings"
)

// ErrInvalidInput is returned for empty or unparseable URLs. It indicates a
// caller bug, never a transient condition.
var ErrInvalidInput = errors.New("invalid input URL")

// FeatureNames is the schema shared with the offline trainer: same names,
// same order, at both training and prediction time.
var FeatureNames = []string{
	"url_length",
	"host_length",
	"path_length",
	"subdomain_count",
	"dot_count",
	"hyphen_count",
	"at_count",
	"double_slash_count",
	"digit_ratio",
	"entropy",
	"has_ip_host",
	"is_shortener",
	"suspicious_hits",
	"has_https",
}

// FeatureVector is an ordered record of named numeric features for a single
// URL. Immutable after construction; request-scoped.
type FeatureVector struct {
	URLLength        float64
	HostLength       float64
	PathLength       float64
	SubdomainCount   float64
	DotCount         float64
	HyphenCount      float64
	AtCount          float64
	DoubleSlashCount float64
	DigitRatio       float64
	Entropy          float64
	HasIPHost        float64
	IsShortener      float64
	SuspiciousHits   float64
	HasHTTPS         float64
}

// Names returns the schema in vector order.
func (fv *FeatureVector) Names() []string {
	out := make([]string, len(FeatureNames))
	copy(out, FeatureNames)
	return out
}

// Values returns the feature values in schema order.
func (fv *FeatureVector) Values() []float64 {
	return []float64{
		fv.URLLength,
		fv.HostLength,
		fv.PathLength,
		fv.SubdomainCount,
		fv.DotCount,
		fv.HyphenCount,
		fv.AtCount,
		fv.DoubleSlashCount,
		fv.DigitRatio,
		fv.Entropy,
		fv.HasIPHost,
		fv.IsShortener,
		fv.SuspiciousHits,
		fv.HasHTTPS,
	}
}

// AttackInfo names the attack class a signal points at, a prevention tip
// for the end user, and the OSI layer the attack operates on.
type AttackInfo struct {
	Attack     string `json:"attack"`
	Prevention string `json:"prevention"`
	Layer      string `json:"layer"`
}

// AttackContext aggregates the attack info of every fired signal,
// de-duplicated, in signal order.
type AttackContext struct {
	AttackTypes []string `json:"attack_types"`
	Prevention  []string `json:"prevention"`
	Layers      []string `json:"layers"`
}

// signalRules drive both the human-readable findings and the attack context
// shown next to a verdict. A rule with a zero AttackInfo contributes a
// signal but no attack mapping.
var signalRules = []struct {
	fires func(*FeatureVector) bool
	text  func(*FeatureVector) string
	info  AttackInfo
}{
	{
		fires: func(fv *FeatureVector) bool { return fv.URLLength > 75 },
		text:  staticText("long URL (>75 chars)"),
		info: AttackInfo{
			Attack:     "Phishing / URL spoofing",
			Prevention: "Avoid clicking suspicious links; verify URL length and domain.",
			Layer:      "Application Layer",
		},
	},
	{
		fires: func(fv *FeatureVector) bool { return fv.PathLength > 50 },
		text:  staticText("long path (>50 chars)"),
		info: AttackInfo{
			Attack:     "Path-based attacks",
			Prevention: "Limit URL length; check for unusual paths.",
			Layer:      "Application Layer",
		},
	},
	{
		fires: func(fv *FeatureVector) bool { return fv.AtCount > 0 },
		text:  staticText("contains '@' (often used in obfuscation)"),
		info: AttackInfo{
			Attack:     "Phishing / Credential harvesting",
			Prevention: "Do not trust URLs with '@'; verify domain.",
			Layer:      "Application Layer",
		},
	},
	{
		fires: func(fv *FeatureVector) bool { return fv.HyphenCount > 0 },
		text:  staticText("hyphen in host"),
		info: AttackInfo{
			Attack:     "Phishing / Brand impersonation",
			Prevention: "Verify domain spelling; avoid suspicious hyphens.",
			Layer:      "Application Layer",
		},
	},
	{
		fires: func(fv *FeatureVector) bool { return fv.SuspiciousHits > 0 },
		text: func(fv *FeatureVector) string {
			return fmt.Sprintf("suspicious keyword in URL (%d)", int(fv.SuspiciousHits))
		},
		info: AttackInfo{
			Attack:     "Phishing / Credential theft",
			Prevention: "Do not enter credentials on suspicious sites.",
			Layer:      "Application Layer",
		},
	},
	{
		fires: func(fv *FeatureVector) bool { return fv.HasIPHost > 0 },
		text:  staticText("IP address used as host"),
		info: AttackInfo{
			Attack:     "Direct IP attacks / Malware",
			Prevention: "Use domain names; avoid direct IP access.",
			Layer:      "Network Layer",
		},
	},
	{
		fires: func(fv *FeatureVector) bool { return fv.SubdomainCount >= 3 },
		text:  staticText("many subdomains"),
		info: AttackInfo{
			Attack:     "Subdomain takeover / phishing",
			Prevention: "Check certificate and domain authenticity.",
			Layer:      "Application Layer",
		},
	},
	{
		fires: func(fv *FeatureVector) bool { return fv.IsShortener > 0 },
		text:  staticText("known URL shortener domain"),
		info: AttackInfo{
			Attack:     "Link cloaking / Phishing",
			Prevention: "Expand shortened links before visiting them.",
			Layer:      "Application Layer",
		},
	},
	{
		fires: func(fv *FeatureVector) bool { return fv.Entropy > 4.2 },
		text:  staticText("high character entropy (looks random/obfuscated)"),
		info: AttackInfo{
			Attack:     "Obfuscated URL / Malware",
			Prevention: "Be cautious with random-looking URLs; scan before visiting.",
			Layer:      "Application Layer",
		},
	},
	{
		fires: func(fv *FeatureVector) bool { return fv.DoubleSlashCount > 0 },
		text:  staticText("'//' inside path"),
		info: AttackInfo{
			Attack:     "Open redirect / Phishing",
			Prevention: "Check where the link actually leads before clicking.",
			Layer:      "Application Layer",
		},
	},
}

func staticText(s string) func(*FeatureVector) string {
	return func(*FeatureVector) string { return s }
}

// Signals renders the human-readable findings behind the vector, in the
// style the UI shows next to a verdict.
func (fv *FeatureVector) Signals() []string {
	var out []string
	for _, rule := range signalRules {
		if rule.fires(fv) {
			out = append(out, rule.text(fv))
		}
	}
	return out
}

// AttackContext maps the fired signals onto attack types, prevention tips,
// and OSI layers. Returns nil when no fired signal carries a mapping.
func (fv *FeatureVector) AttackContext() *AttackContext {
	var ctx AttackContext
	for _, rule := range signalRules {
		if !rule.fires(fv) || rule.info.Attack == "" {
			continue
		}
		ctx.AttackTypes = appendUnique(ctx.AttackTypes, rule.info.Attack)
		ctx.Prevention = appendUnique(ctx.Prevention, rule.info.Prevention)
		ctx.Layers = appendUnique(ctx.Layers, rule.info.Layer)
	}
	if len(ctx.AttackTypes) == 0 {
		return nil
	}
	return &ctx
}

func appendUnique(list []string, s string) []string {
	if slices.Contains(list, s) {
		return list
	}
	return append(list, s)
}

// Extractor computes feature vectors against a fixed lexicon.
// Safe for concurrent use; holds no mutable state.
type Extractor struct {
	lexicon *Lexicon
}

// NewExtractor creates an Extractor with the given lexicon.
func NewExtractor(lex *Lexicon) *Extractor {
	return &Extractor{lexicon: lex}
}

// Extract parses rawURL and computes its feature vector.
//
// Normalization policy: input with no http:// or https:// prefix gets
// "http://" prepended (matching the training data preparation). Empty input,
// input that still fails to parse, or input with no host fails with
// ErrInvalidInput.
func (e *Extractor) Extract(rawURL string) (*FeatureVector, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty URL", ErrInvalidInput)
	}

	normalized := trimmed
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		normalized = "http://" + trimmed
	}

	u, err := url.Parse(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("%w: no host in %q", ErrInvalidInput, rawURL)
	}

	full := strings.ToLower(normalized)
	host = strings.ToLower(host)

	fv := &FeatureVector{
		URLLength:  float64(len(full)),
		HostLength: float64(len(u.Host)),
		PathLength: float64(len(u.Path)),
		DotCount:   float64(strings.Count(full, ".")),
		AtCount:    float64(strings.Count(full, "@")),
		Entropy:    shannonEntropy(full),
	}

	isIP := net.ParseIP(host) != nil
	if isIP {
		fv.HasIPHost = 1
	} else {
		labels := strings.Split(host, ".")
		if n := len(labels) - 2; n > 0 {
			fv.SubdomainCount = float64(n)
		}
	}

	fv.HyphenCount = float64(strings.Count(host, "-"))

	// "//" beyond the scheme separator, a classic redirect-obfuscation trick.
	if n := strings.Count(full, "//") - 1; n > 0 {
		fv.DoubleSlashCount = float64(n)
	}

	digits := 0
	for _, r := range full {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	fv.DigitRatio = float64(digits) / float64(len(full))

	if u.Scheme == "https" {
		fv.HasHTTPS = 1
	}

	for _, short := range e.lexicon.ShortenerDomains {
		if host == short || strings.HasSuffix(host, "."+short) {
			fv.IsShortener = 1
			break
		}
	}

	hits := 0
	for _, word := range e.lexicon.SuspiciousWords {
		if strings.Contains(full, word) {
			hits++
		}
	}
	fv.SuspiciousHits = float64(hits)

	return fv, nil
}

// shannonEntropy returns the character entropy of s in bits per character.
func shannonEntropy(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	counts := make(map[rune]int)
	total := 0
	for _, r := range s {
		counts[r]++
		total++
	}
	entropy := 0.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}
