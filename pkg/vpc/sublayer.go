package vpc

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/beetlebugorg/vpc/internal/catalog"
)

// LayerType is the kind of map layer a sublayer holds.
type LayerType int

const (
	LayerTypeUnknown LayerType = iota
	LayerTypePointCloud
)

func (t LayerType) String() string {
	if t == LayerTypePointCloud {
		return "pointcloud"
	}
	return "unknown"
}

// SublayerDetails describes one dataset offered from a resource.
type SublayerDetails struct {
	URI         string
	ProviderKey string
	Name        string
	Type        LayerType
}

// URIParts are the components of a provider URI.
type URIParts struct {
	Path     string // The URI as given
	FileName string // Last path element, without query or fragment
}

// DecodeURI splits uri into its parts.
func DecodeURI(uri string) URIParts {
	parts := URIParts{Path: uri}
	if catalog.HasScheme(uri) {
		if u, err := url.Parse(uri); err == nil {
			if base := path.Base(u.Path); base != "/" && base != "." {
				parts.FileName = base
			}
			return parts
		}
	}
	if uri != "" && !strings.HasSuffix(uri, "/") && !strings.HasSuffix(uri, string(filepath.Separator)) {
		parts.FileName = filepath.Base(uri)
	}
	return parts
}

// EncodeURI is the inverse of DecodeURI.
func EncodeURI(parts URIParts) string {
	return parts.Path
}

func isCatalog(uri string) bool {
	return strings.HasSuffix(strings.ToLower(DecodeURI(uri).FileName), ".vpc")
}

// QuerySublayers returns the datasets uri offers: exactly one point cloud
// sublayer when it names a .vpc file, none otherwise. The file is not read.
func QuerySublayers(uri string) []SublayerDetails {
	if !isCatalog(uri) {
		return nil
	}
	return []SublayerDetails{{
		URI:         uri,
		ProviderKey: ProviderKey,
		Name:        layerName(uri),
		Type:        LayerTypePointCloud,
	}}
}

// PriorityForURI ranks this provider against others for uri.
func PriorityForURI(uri string) int {
	if isCatalog(uri) {
		return 100
	}
	return 0
}

// ValidLayerTypesForURI returns the layer types uri can be opened as.
func ValidLayerTypesForURI(uri string) []LayerType {
	if isCatalog(uri) {
		return []LayerType{LayerTypePointCloud}
	}
	return nil
}

// FileFilter returns the file dialog filter for catalogs.
func FileFilter() string {
	return "Virtual Point Clouds (*.vpc *.VPC)"
}

// layerName suggests a layer name from the file name of uri.
func layerName(uri string) string {
	name := DecodeURI(uri).FileName
	if ext := path.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}
