// components/dashboard/widgets/endpoints.go
//
// Dashboard widgets whose backend document is shown as-is.
package widgets

import (
	"net/url"

	"github.com/yanizio/pawnboard/internal/widget"
)

// recentLimit caps the activity feed on the dashboard.
const recentLimit = "10"

func init() {
	widget.Register(&widget.Endpoint{
		Key:      "daily-summary",
		Label:    "สรุปยอดประจำวัน",
		Desc:     "ยอดรับจำนำ ไถ่ถอน ต่อดอก และหลุดจำนำของสาขาในวันที่เลือก",
		PageName: "dashboard",
		Path:     "/dashboard/summary",
		Filtered: true,
	})
	widget.Register(&widget.Endpoint{
		Key:      "branch-transactions",
		Label:    "รายการธุรกรรมสาขา",
		Desc:     "รายการธุรกรรมทั้งหมดของสาขาในวันที่เลือก",
		PageName: "dashboard",
		Path:     "/dashboard/transactions",
		Filtered: true,
	})
	widget.Register(&widget.Endpoint{
		Key:      "recent-activity",
		Label:    "กิจกรรมล่าสุด",
		Desc:     "กิจกรรมล่าสุดของพนักงานในสาขา",
		PageName: "dashboard",
		Path:     "/activity-logs",
		Filtered: true,
		Extra:    url.Values{"limit": {recentLimit}},
	})
}
