package api

import (
	"net/http"

	"go.uber.org/zap"
)

// Floating header assets referenced by the archive wrapper page. Served
// inline so the service stays a single binary.

const headerStyleCSS = `/* Secure Link Archive Floating Header */
:root {
  --sla-primary: #2563EB;
  --sla-accent: #F59E0B;
  --sla-bg: #ffffff;
  --sla-shadow: rgba(0,0,0,0.08);
}
.sla-header {
  position: sticky;
  top: 0;
  z-index: 9999;
  background: var(--sla-bg);
  border-bottom: 1px solid #e5e7eb;
  box-shadow: 0 2px 8px var(--sla-shadow);
  font-family: system-ui, -apple-system, Segoe UI, Roboto, Ubuntu, Cantarell, Noto Sans, Arial, sans-serif;
}
.sla-container {
  max-width: 1080px;
  margin: 0 auto;
  padding: 10px 16px;
  display: flex;
  align-items: center;
  justify-content: space-between;
}
.sla-title {
  color: var(--sla-primary);
  font-weight: 700;
}
.sla-meta {
  color: #374151;
  font-size: 0.9rem;
}
.sla-content {
  padding: 16px;
}
.sla-archived-text {
  white-space: pre-wrap;
  background: #f9fafb;
  border: 1px solid #e5e7eb;
  border-radius: 6px;
  padding: 12px;
}`

const headerScriptJS = `/* Secure Link Archive Header Script */
(function () {
  function ready(fn){ if(document.readyState !== 'loading'){ fn(); } else { document.addEventListener('DOMContentLoaded', fn); } }

  function renderChangeBadge(changed){
    var meta = document.querySelector('#sla-header .sla-meta');
    if(!meta) return;
    var badge = document.createElement('span');
    badge.style.marginLeft = '8px';
    badge.style.padding = '2px 8px';
    badge.style.borderRadius = '9999px';
    badge.style.fontSize = '0.8rem';
    badge.style.color = '#fff';
    badge.style.background = changed ? '#F59E0B' : '#10B981';
    badge.textContent = changed ? 'Changes detected' : 'No changes';
    meta.appendChild(badge);
  }

  function fetchCompare(code){
    if(!code) return;
    fetch('/api/compare/' + encodeURIComponent(code), { method: 'GET' })
      .then(function(r){ return r.json(); })
      .then(function(data){
        renderChangeBadge(!!data.has_changes);
      })
      .catch(function(){ renderChangeBadge(false); });
  }

  ready(function(){
    var header = document.getElementById('sla-header');
    var code = header ? header.getAttribute('data-code') : null;
    fetchCompare(code);
  });
})();`

func (s *Server) headerStyle(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(headerStyleCSS)); err != nil {
		s.logger.Error("write stylesheet failed", zap.Error(err))
	}
}

func (s *Server) headerScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(headerScriptJS)); err != nil {
		s.logger.Error("write script failed", zap.Error(err))
	}
}
