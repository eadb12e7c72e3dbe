// components/assettypes/widgets/assettypes.go
//
// Asset-type page widgets: the pledge mix by asset category for the
// selected branch and day, and its recent trend.
package widgets

import "github.com/yanizio/pawnboard/internal/widget"

func init() {
	widget.Register(&widget.Endpoint{
		Key:      "asset-type-summary",
		Label:    "สรุปประเภททรัพย์",
		Desc:     "จำนวนและมูลค่ารับจำนำแยกตามประเภททรัพย์",
		PageName: "asset-types",
		Path:     "/asset-types/summary",
		Filtered: true,
	})
	widget.Register(&widget.Endpoint{
		Key:      "asset-type-trend",
		Label:    "แนวโน้มประเภททรัพย์",
		Desc:     "แนวโน้มมูลค่ารับจำนำแยกตามประเภททรัพย์ย้อนหลัง",
		PageName: "asset-types",
		Path:     "/asset-types/trend",
		Filtered: true,
	})
}
