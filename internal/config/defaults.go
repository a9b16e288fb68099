package config

// defaultCacheControl is the maximum age CDNs commonly allow. Content-hashed
// names never change meaning, so aggressive caching is safe.
const defaultCacheControl = "public,max-age=31536000"

func defaultGzipTypes() []string {
	return []string{".txt", ".htm", ".html", ".css", ".csv", ".js", ".json"}
}

func defaultContentTypes() map[string]string {
	return map[string]string{
		".txt":  "text/plain; charset=utf-8",
		".htm":  "text/html; charset=utf-8",
		".html": "text/html; charset=utf-8",
		".css":  "text/css; charset=utf-8",
		".csv":  "text/csv; charset=utf-8",
		".js":   "application/javascript; charset=utf-8",
		".json": "application/json; charset=utf-8",
		".xml":  "application/xml; charset=utf-8",
		".bin":  "application/octet-stream",
		".pdf":  "application/pdf",
		".ogx":  "application/ogg",
		".zip":  "application/zip",
		".bmp":  "image/bmp",
		".ico":  "image/x-icon",
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".tiff": "image/tiff",
		".oga":  "audio/ogg",
		".mp4a": "audio/mp4",
		".wav":  "audio/x-wav",
		".ogv":  "video/ogg",
		".mp4":  "video/mp4",
	}
}
