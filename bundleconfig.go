package apkpack

import "google.golang.org/protobuf/encoding/protowire"

// buildBundleConfig renders a minimal aapt.pb.BundleConfig: just the
// bundletool sub-message's version string, which is the one field every
// real Play-ingested bundle always carries and the only one this core
// has a meaningful value for (spec §4.I; every other BundleConfig field
// — compression globs, optimizations, asset module config — has no
// input in this core's data model, so it is left at its proto default).
//
// Field numbers follow aapt2's Config.proto:
//
//	BundleConfig: bundletool=1
//	Bundletool:   version=1
func buildBundleConfig() []byte {
	var bundletool []byte
	bundletool = protowire.AppendTag(bundletool, 1, protowire.BytesType)
	bundletool = protowire.AppendString(bundletool, "1.0.0")

	var config []byte
	config = protowire.AppendTag(config, 1, protowire.BytesType)
	config = protowire.AppendBytes(config, bundletool)
	return config
}
