package apkpack

// frameworkAttrs is the embedded subset of Android's attrs_manifest.xml /
// generated R.attr table needed to compile the manifest and resource
// elements this core supports (spec §4.D: "a small embedded table, the
// subset needed by the supported manifest/resource elements"). IDs below
// versionCode/versionName match the worked examples in spec §8 exactly;
// the rest follow the same early-allocation block in AOSP's public
// android.R.attr and are internally consistent even where we could not
// cross-check every last constant against a live SDK.
var frameworkAttrs = map[string]uint32{
	"theme":                0x01010000,
	"label":                0x01010001,
	"icon":                 0x01010002,
	"name":                 0x01010003,
	"manageSpaceActivity":  0x01010004,
	"allowClearUserData":   0x01010005,
	"permission":           0x01010006,
	"readPermission":       0x01010007,
	"writePermission":      0x01010008,
	"protectionLevel":      0x01010009,
	"permissionGroup":      0x0101000a,
	"sharedUserId":         0x0101000b,
	"hasCode":              0x0101000c,
	"persistent":           0x0101000d,
	"enabled":              0x0101000e,
	"debuggable":           0x0101000f,
	"exported":             0x01010010,
	"process":              0x01010011,
	"taskAffinity":         0x01010012,
	"multiprocess":         0x01010013,
	"finishOnTaskLaunch":   0x01010014,
	"clearTaskOnLaunch":    0x01010015,
	"stateNotNeeded":       0x01010016,
	"excludeFromRecents":   0x01010017,
	"authorities":          0x01010018,
	"syncable":             0x01010019,
	"initOrder":            0x0101001a,
	"grantUriPermissions":  0x0101001b,
	"priority":             0x0101001c,
	"launchMode":           0x0101001d,
	"screenOrientation":    0x0101001e,
	"configChanges":        0x0101001f,
	"mimeType":             0x01010020,
	"scheme":               0x01010021,
	"host":                 0x01010022,
	"port":                 0x01010023,
	"path":                 0x01010024,
	"pathPrefix":           0x01010025,
	"pathPattern":          0x01010026,
	"action":               0x01010027,
	"data":                 0x01010028,
	"targetPackage":        0x01010029,
	"windowSoftInputMode":  0x0101022b,
	"minSdkVersion":        0x0101020c,
	"targetSdkVersion":     0x01010270,
	"maxSdkVersion":        0x010102b1,
	"allowBackup":          0x01010280,
	"supportsRtl":          0x010103af,
	"roundIcon":            0x1010716,
	"fullBackupContent":    0x101042c,
	"requiredFeature":      0x10104e4,
	"resizeableActivity":   0x10104f8,
	"usesCleartextTraffic": 0x1010491,
	"compileSdkVersion":    0x1010572,
	"versionCode":          0x0101021b,
	"versionName":          0x0101021c,
	"package":              0x01010003 + 0x10000, // never used: package is a plain-string attribute, never resource-ID encoded (spec §4.D); kept out of lookups below
}

func init() {
	// "package" is intentionally excluded from the lookup table: the
	// root <manifest package="..."> attribute always uses the string
	// pool, never a framework resource ID, regardless of namespace.
	delete(frameworkAttrs, "package")
}

// frameworkAttrNamespace is the sole framework attribute namespace this
// core recognizes.
const frameworkAttrNamespace = "http://schemas.android.com/apk/res/android"

func lookupFrameworkAttr(name string) (uint32, bool) {
	id, ok := frameworkAttrs[name]
	return id, ok
}
