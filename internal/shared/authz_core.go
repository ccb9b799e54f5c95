package shared

// Capabilities are the role-derived switches the UI uses to show or hide controls.
type Capabilities struct {
	CanDeleteContent  bool `json:"can_delete_content"`
	CanManageUsers    bool `json:"can_manage_users"`
	CanViewLogs       bool `json:"can_view_logs"`
	CanChangePassword bool `json:"can_change_password"`
	CanDeploy         bool `json:"can_deploy"`
}

// CapabilitiesFor derives UI capabilities from a role.
func CapabilitiesFor(role Role) Capabilities {
	return Capabilities{
		CanDeleteContent:  role.IsAdminTier(),
		CanManageUsers:    role.IsSuperadmin(),
		CanViewLogs:       role.IsAdminTier(),
		CanChangePassword: role.IsAdminTier(),
		CanDeploy:         role.IsAdminTier(),
	}
}

// NavItem is a sidebar entry.
type NavItem struct {
	Title string    `json:"title"`
	URL   string    `json:"url,omitempty"`
	Items []NavItem `json:"items,omitempty"`

	superadminOnly bool
}

// navTree mirrors the panel sidebar.
var navTree = []NavItem{
	{Title: "Panel", URL: "/"},
	{Title: "İçerik", Items: []NavItem{
		{Title: "Haberler", URL: "/content/news"},
		{Title: "Duyurular", URL: "/content/announcements"},
		{Title: "Komiteler", URL: "/content/committees"},
		{Title: "Etkinlikler", URL: "/content/events"},
		{Title: "Projeler", URL: "/content/projects"},
	}},
	{Title: "Kayıtlar", URL: "/logs"},
	{Title: "Ayarlar", URL: "/settings"},
	{Title: "Kullanıcılar", URL: "/users", superadminOnly: true},
	{Title: "Sistem", URL: "/system", superadminOnly: true},
}

// NavigationFor returns the sidebar entries visible to role.
func NavigationFor(role Role) []NavItem {
	if !role.IsAdminTier() {
		return []NavItem{}
	}
	return filterNav(navTree, role)
}

func filterNav(items []NavItem, role Role) []NavItem {
	out := make([]NavItem, 0, len(items))
	for _, item := range items {
		if item.superadminOnly && !role.IsSuperadmin() {
			continue
		}
		copyItem := NavItem{Title: item.Title, URL: item.URL}
		if len(item.Items) > 0 {
			copyItem.Items = filterNav(item.Items, role)
		}
		out = append(out, copyItem)
	}
	return out
}
